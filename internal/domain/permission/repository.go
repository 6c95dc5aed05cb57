package permission

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Repository interface for permission storage
type Repository interface {
	CreateGrant(p *Permission) error
	FindGrant(userID, perm string) (*Permission, error)
	DeleteGrant(userID, perm string) (int64, error)
	FindGrantsForUser(userID string) ([]Permission, error)

	UpsertWidget(p *WidgetPermission) error
	DeleteWidget(userID, widgetID string) (int64, error)
	FindWidgetGrant(userID, widgetID string) (*WidgetPermission, error)
	FindWidgetGrantsForUser(userID string) ([]WidgetPermission, error)

	UpsertGroupWidget(p *GroupWidgetPermission) error
	DeleteGroupWidget(groupID, widgetID string) (int64, error)
	FindGroupWidgetGrants(groupIDs []string, widgetID string) ([]GroupWidgetPermission, error)
	FindGroupWidgetGrantsForGroup(groupID string) ([]GroupWidgetPermission, error)
}

// repository struct for permission storage
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new permission repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) CreateGrant(p *Permission) error {
	return r.db.Create(p).Error
}

func (r *repository) FindGrant(userID, perm string) (*Permission, error) {
	var grant Permission
	err := r.db.Where("user_id = ? AND permission = ?", userID, perm).First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *repository) DeleteGrant(userID, perm string) (int64, error) {
	res := r.db.Where("user_id = ? AND permission = ?", userID, perm).Delete(&Permission{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindGrantsForUser(userID string) ([]Permission, error) {
	var grants []Permission
	if err := r.db.Where("user_id = ?", userID).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

// UpsertWidget inserts the grant or refreshes level, grantor and expiry
// on an existing one.
func (r *repository) UpsertWidget(p *WidgetPermission) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "widget_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_level", "granted_by", "expires_at", "updated_at"}),
	}).Create(p).Error
}

func (r *repository) DeleteWidget(userID, widgetID string) (int64, error) {
	res := r.db.Where("user_id = ? AND widget_id = ?", userID, widgetID).Delete(&WidgetPermission{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindWidgetGrant(userID, widgetID string) (*WidgetPermission, error) {
	var grant WidgetPermission
	err := r.db.Where("user_id = ? AND widget_id = ?", userID, widgetID).First(&grant).Error
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

func (r *repository) FindWidgetGrantsForUser(userID string) ([]WidgetPermission, error) {
	var grants []WidgetPermission
	if err := r.db.Where("user_id = ?", userID).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *repository) UpsertGroupWidget(p *GroupWidgetPermission) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "group_id"}, {Name: "widget_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_level", "granted_by", "expires_at", "updated_at"}),
	}).Create(p).Error
}

func (r *repository) DeleteGroupWidget(groupID, widgetID string) (int64, error) {
	res := r.db.Where("group_id = ? AND widget_id = ?", groupID, widgetID).Delete(&GroupWidgetPermission{})
	return res.RowsAffected, res.Error
}

func (r *repository) FindGroupWidgetGrants(groupIDs []string, widgetID string) ([]GroupWidgetPermission, error) {
	if len(groupIDs) == 0 {
		return nil, nil
	}
	var grants []GroupWidgetPermission
	err := r.db.Where("group_id IN ? AND widget_id = ?", groupIDs, widgetID).Find(&grants).Error
	if err != nil {
		return nil, err
	}
	return grants, nil
}

func (r *repository) FindGroupWidgetGrantsForGroup(groupID string) ([]GroupWidgetPermission, error) {
	var grants []GroupWidgetPermission
	if err := r.db.Where("group_id = ?", groupID).Find(&grants).Error; err != nil {
		return nil, err
	}
	return grants, nil
}
