package user

import (
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrUserNotFound is returned when the user does not exist
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole is returned for role values outside user/admin
	ErrInvalidRole = errors.New("invalid role")
	// ErrSelfDemotion is returned when an admin tries to drop their own role
	ErrSelfDemotion = errors.New("you cannot change your own role")
	// ErrSelfDeactivation is returned when an admin tries to deactivate themselves
	ErrSelfDeactivation = errors.New("you cannot deactivate your own account")
)

// Identity is the verified triple delivered by the upstream provider
type Identity struct {
	Email     string
	Name      string
	SubjectID string
}

// Service interface for user operations
type Service interface {
	// Upsert creates the user on first sight of an upstream identity, or
	// refreshes name/subject and last login on a returning one. The very
	// first user ever created is promoted to admin.
	Upsert(identity Identity) (*User, error)
	Get(id string) (*User, error)
	List() ([]User, error)
	// ChangeRole updates a user's role; actorID guards against self-demotion.
	ChangeRole(id string, role Role, actorID string) error
	// ToggleActive flips the active flag; actorID guards against
	// self-deactivation. Returns the new state.
	ToggleActive(id string, actorID string) (bool, error)
	TouchLastActive(id string) error
}

// service struct for user operations
type service struct {
	repo Repository
}

// NewService creates a new user service
func NewService(repo Repository) Service {
	return &service{repo}
}

// Upsert creates or refreshes a user from a verified upstream identity
func (s *service) Upsert(identity Identity) (*User, error) {
	now := time.Now().UTC()

	existing, err := s.repo.FindByEmail(identity.Email)
	if err == nil {
		existing.Name = identity.Name
		existing.SubjectID = identity.SubjectID
		existing.LastLogin = &now
		if err := s.repo.Update(existing); err != nil {
			return nil, err
		}
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	role := RoleUser
	count, err := s.repo.Count()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		role = RoleAdmin
	}

	u := &User{
		Email:     identity.Email,
		Name:      identity.Name,
		SubjectID: identity.SubjectID,
		Role:      role,
		IsActive:  true,
		LastLogin: &now,
	}
	if err := s.repo.Create(u); err != nil {
		return nil, err
	}

	return u, nil
}

// Get returns a user by ID
func (s *service) Get(id string) (*User, error) {
	u, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns every user
func (s *service) List() ([]User, error) {
	return s.repo.FindAll()
}

// ChangeRole updates a user's role
func (s *service) ChangeRole(id string, role Role, actorID string) error {
	if !role.IsValid() {
		return ErrInvalidRole
	}
	if id == actorID && role != RoleAdmin {
		return ErrSelfDemotion
	}

	if _, err := s.Get(id); err != nil {
		return err
	}

	return s.repo.UpdateRole(id, role)
}

// ToggleActive flips a user's active flag
func (s *service) ToggleActive(id string, actorID string) (bool, error) {
	if id == actorID {
		return false, ErrSelfDeactivation
	}

	u, err := s.Get(id)
	if err != nil {
		return false, err
	}

	newState := !u.IsActive
	if err := s.repo.SetActive(id, newState); err != nil {
		return false, err
	}

	return newState, nil
}

// TouchLastActive updates the last activity timestamp
func (s *service) TouchLastActive(id string) error {
	return s.repo.TouchLastActive(id, time.Now().UTC())
}
