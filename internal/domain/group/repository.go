package group

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface for group operations
type Repository interface {
	Create(g *Group) error
	FindByID(id string) (*Group, error)
	FindByName(name string) (*Group, error)
	FindAll() ([]Group, error)
	Update(g *Group) error
	Delete(id string) error
	AddMembers(groupID string, userIDs []string) error
	RemoveMember(groupID, userID string) (int64, error)
	MemberIDs(groupID string) ([]string, error)
	// GroupIDsForUser backs the widget permission lookup
	GroupIDsForUser(userID string) ([]string, error)
}

// repository struct for group operations
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new group repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(g *Group) error {
	return r.db.Create(g).Error
}

func (r *repository) FindByID(id string) (*Group, error) {
	var g Group
	if err := r.db.Where("id = ?", id).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindByName(name string) (*Group, error) {
	var g Group
	if err := r.db.Where("name = ?", name).First(&g).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

func (r *repository) FindAll() ([]Group, error) {
	var groups []Group
	if err := r.db.Order("name ASC").Find(&groups).Error; err != nil {
		return nil, err
	}
	return groups, nil
}

func (r *repository) Update(g *Group) error {
	return r.db.Save(g).Error
}

// Delete removes a group, its memberships and its widget grants. The
// grants table is addressed by name; its model lives in the permission
// package, which depends on this one.
func (r *repository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("group_id = ?", id).Delete(&Member{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM group_widget_permissions WHERE group_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&Group{}).Error
	})
}

// AddMembers inserts memberships, silently skipping ones that exist
func (r *repository) AddMembers(groupID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	members := make([]Member, 0, len(userIDs))
	for _, userID := range userIDs {
		members = append(members, Member{GroupID: groupID, UserID: userID})
	}

	return r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&members).Error
}

func (r *repository) RemoveMember(groupID, userID string) (int64, error) {
	res := r.db.Where("group_id = ? AND user_id = ?", groupID, userID).Delete(&Member{})
	return res.RowsAffected, res.Error
}

func (r *repository) MemberIDs(groupID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&Member{}).Where("group_id = ?", groupID).Pluck("user_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) GroupIDsForUser(userID string) ([]string, error) {
	var ids []string
	err := r.db.Model(&Member{}).Where("user_id = ?", userID).Pluck("group_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
