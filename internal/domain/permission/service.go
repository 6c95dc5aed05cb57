package permission

import (
	"errors"
	"slices"
	"time"

	"gorm.io/gorm"

	"github.com/lumenboard/lumenboard/internal/domain/group"
	"github.com/lumenboard/lumenboard/internal/domain/user"
)

var (
	// ErrDuplicateGrant is returned when the flat permission already exists
	ErrDuplicateGrant = errors.New("permission already granted")
	// ErrGrantNotFound is returned when revoking a grant that does not exist
	ErrGrantNotFound = errors.New("permission grant not found")
	// ErrInvalidAccessLevel is returned for levels outside view/edit/admin
	ErrInvalidAccessLevel = errors.New("invalid access level")
)

// Service interface for permission checks and grants
type Service interface {
	Grant(userID, perm, grantedBy string) error
	Revoke(userID, perm string) error
	ListForUser(userID string) ([]Permission, error)
	// HasPermission folds the admin short-circuit, the role baseline and
	// direct grants into one answer.
	HasPermission(userID string, role user.Role, perm string) (bool, error)

	GrantWidget(userID, widgetID string, level AccessLevel, grantedBy string, expiresAt *time.Time) error
	RevokeWidget(userID, widgetID string) error
	ListWidgetsForUser(userID string) ([]WidgetPermission, error)
	GrantGroupWidget(groupID, widgetID string, level AccessLevel, grantedBy string, expiresAt *time.Time) error
	RevokeGroupWidget(groupID, widgetID string) error
	ListWidgetsForGroup(groupID string) ([]GroupWidgetPermission, error)
	// HasWidgetAccess resolves the effective level: a direct unexpired
	// grant wins outright, otherwise the highest unexpired group grant.
	HasWidgetAccess(userID string, role user.Role, widgetID string, required AccessLevel) (bool, error)
}

// service struct for permission operations
type service struct {
	repo   Repository
	groups group.Service
}

// NewService creates a new permission service
func NewService(repo Repository, groups group.Service) Service {
	return &service{repo: repo, groups: groups}
}

// Grant adds a flat permission; granting twice is an error
func (s *service) Grant(userID, perm, grantedBy string) error {
	if _, err := s.repo.FindGrant(userID, perm); err == nil {
		return ErrDuplicateGrant
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return s.repo.CreateGrant(&Permission{
		UserID:     userID,
		Permission: perm,
		GrantedBy:  grantedBy,
	})
}

// Revoke removes a flat permission
func (s *service) Revoke(userID, perm string) error {
	affected, err := s.repo.DeleteGrant(userID, perm)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// ListForUser returns the user's direct flat grants
func (s *service) ListForUser(userID string) ([]Permission, error) {
	return s.repo.FindGrantsForUser(userID)
}

// HasPermission checks a flat permission
func (s *service) HasPermission(userID string, role user.Role, perm string) (bool, error) {
	if role == user.RoleAdmin {
		return true, nil
	}
	if slices.Contains(rolePermissions[role], perm) {
		return true, nil
	}

	if _, err := s.repo.FindGrant(userID, perm); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// GrantWidget grants or refreshes a user's widget access
func (s *service) GrantWidget(userID, widgetID string, level AccessLevel, grantedBy string, expiresAt *time.Time) error {
	if !level.IsValid() {
		return ErrInvalidAccessLevel
	}
	return s.repo.UpsertWidget(&WidgetPermission{
		UserID:      userID,
		WidgetID:    widgetID,
		AccessLevel: level,
		GrantedBy:   grantedBy,
		ExpiresAt:   expiresAt,
	})
}

// RevokeWidget removes a user's direct widget grant
func (s *service) RevokeWidget(userID, widgetID string) error {
	affected, err := s.repo.DeleteWidget(userID, widgetID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// ListWidgetsForUser returns the user's direct widget grants
func (s *service) ListWidgetsForUser(userID string) ([]WidgetPermission, error) {
	return s.repo.FindWidgetGrantsForUser(userID)
}

// GrantGroupWidget grants or refreshes a group's widget access
func (s *service) GrantGroupWidget(groupID, widgetID string, level AccessLevel, grantedBy string, expiresAt *time.Time) error {
	if !level.IsValid() {
		return ErrInvalidAccessLevel
	}
	return s.repo.UpsertGroupWidget(&GroupWidgetPermission{
		GroupID:     groupID,
		WidgetID:    widgetID,
		AccessLevel: level,
		GrantedBy:   grantedBy,
		ExpiresAt:   expiresAt,
	})
}

// RevokeGroupWidget removes a group's widget grant
func (s *service) RevokeGroupWidget(groupID, widgetID string) error {
	affected, err := s.repo.DeleteGroupWidget(groupID, widgetID)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrGrantNotFound
	}
	return nil
}

// ListWidgetsForGroup returns a group's widget grants
func (s *service) ListWidgetsForGroup(groupID string) ([]GroupWidgetPermission, error) {
	return s.repo.FindGroupWidgetGrantsForGroup(groupID)
}

// HasWidgetAccess resolves the caller's effective widget access level
func (s *service) HasWidgetAccess(userID string, role user.Role, widgetID string, required AccessLevel) (bool, error) {
	if !required.IsValid() {
		return false, ErrInvalidAccessLevel
	}
	if role == user.RoleAdmin {
		return true, nil
	}

	now := time.Now().UTC()

	// An unexpired direct grant decides on its own, even when a group
	// grant is higher. An expired one falls through to group grants.
	direct, err := s.repo.FindWidgetGrant(userID, widgetID)
	if err == nil {
		if direct.ExpiresAt == nil || now.Before(*direct.ExpiresAt) {
			return direct.AccessLevel.AtLeast(required), nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	groupIDs, err := s.groups.GroupIDsForUser(userID)
	if err != nil {
		return false, err
	}
	grants, err := s.repo.FindGroupWidgetGrants(groupIDs, widgetID)
	if err != nil {
		return false, err
	}

	best := AccessLevel("")
	for _, grant := range grants {
		if grant.ExpiresAt != nil && now.After(*grant.ExpiresAt) {
			continue
		}
		if accessRank[grant.AccessLevel] > accessRank[best] {
			best = grant.AccessLevel
		}
	}
	if best == "" {
		return false, nil
	}
	return best.AtLeast(required), nil
}
