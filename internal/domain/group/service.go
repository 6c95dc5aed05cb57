package group

import (
	"errors"

	"gorm.io/gorm"

	"github.com/lumenboard/lumenboard/internal/domain/user"
)

var (
	// ErrGroupNotFound is returned when the group does not exist
	ErrGroupNotFound = errors.New("group not found")
	// ErrDuplicateName is returned when a group name is already taken
	ErrDuplicateName = errors.New("group name already exists")
	// ErrMemberNotFound is returned when removing a user who is not a member
	ErrMemberNotFound = errors.New("user is not a member of this group")
)

// Detail is a group together with its membership
type Detail struct {
	Group   *Group         `json:"group"`
	Members []user.Summary `json:"members"`
}

// Service interface for group operations
type Service interface {
	Create(name, description, color, createdBy string) (*Group, error)
	Get(id string) (*Detail, error)
	List() ([]Group, error)
	Update(id, name, description, color string) (*Group, error)
	Delete(id string) error
	AddMembers(groupID string, userIDs []string) error
	RemoveMember(groupID, userID string) error
	GroupIDsForUser(userID string) ([]string, error)
}

// service struct for group operations
type service struct {
	repo  Repository
	users user.Service
}

// NewService creates a new group service
func NewService(repo Repository, users user.Service) Service {
	return &service{repo: repo, users: users}
}

// Create creates a new group with a unique name
func (s *service) Create(name, description, color, createdBy string) (*Group, error) {
	if _, err := s.repo.FindByName(name); err == nil {
		return nil, ErrDuplicateName
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	g := &Group{
		Name:        name,
		Description: description,
		Color:       color,
		CreatedBy:   createdBy,
	}
	if err := s.repo.Create(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Get returns a group with its member list
func (s *service) Get(id string) (*Detail, error) {
	g, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	memberIDs, err := s.repo.MemberIDs(id)
	if err != nil {
		return nil, err
	}

	members := make([]user.Summary, 0, len(memberIDs))
	for _, userID := range memberIDs {
		u, err := s.users.Get(userID)
		if err != nil {
			continue
		}
		members = append(members, *u.ToSummary())
	}

	return &Detail{Group: g, Members: members}, nil
}

// List returns every group
func (s *service) List() ([]Group, error) {
	return s.repo.FindAll()
}

// Update changes a group's name, description or color
func (s *service) Update(id, name, description, color string) (*Group, error) {
	g, err := s.repo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGroupNotFound
		}
		return nil, err
	}

	if name != "" && name != g.Name {
		if _, err := s.repo.FindByName(name); err == nil {
			return nil, ErrDuplicateName
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		g.Name = name
	}
	if description != "" {
		g.Description = description
	}
	if color != "" {
		g.Color = color
	}

	if err := s.repo.Update(g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete removes a group and its memberships
func (s *service) Delete(id string) error {
	if _, err := s.repo.FindByID(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}
	return s.repo.Delete(id)
}

// AddMembers adds users to a group, ignoring existing memberships
func (s *service) AddMembers(groupID string, userIDs []string) error {
	if _, err := s.repo.FindByID(groupID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrGroupNotFound
		}
		return err
	}

	// Unknown user ids are dropped rather than failing the whole batch
	valid := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		if _, err := s.users.Get(userID); err == nil {
			valid = append(valid, userID)
		}
	}

	return s.repo.AddMembers(groupID, valid)
}

// RemoveMember removes a user from a group
func (s *service) RemoveMember(groupID, userID string) error {
	affected, err := s.repo.RemoveMember(groupID, userID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrMemberNotFound
	}
	return nil
}

// GroupIDsForUser returns the ids of groups the user belongs to
func (s *service) GroupIDsForUser(userID string) ([]string, error) {
	return s.repo.GroupIDsForUser(userID)
}
