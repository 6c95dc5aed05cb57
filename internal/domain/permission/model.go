package permission

import (
	"time"

	"github.com/lumenboard/lumenboard/internal/database"
	"github.com/lumenboard/lumenboard/internal/domain/user"
)

// Permission is a flat named grant attached directly to a user
type Permission struct {
	database.BaseModel

	UserID     string `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_perm" json:"user_id"`
	Permission string `gorm:"column:permission;not null;uniqueIndex:idx_user_perm" json:"permission"`
	GrantedBy  string `gorm:"column:granted_by;type:uuid" json:"granted_by"`
}

func (Permission) TableName() string {
	return "permissions"
}

// AccessLevel orders widget capabilities: view < edit < admin
type AccessLevel string

const (
	AccessView  AccessLevel = "view"
	AccessEdit  AccessLevel = "edit"
	AccessAdmin AccessLevel = "admin"
)

var accessRank = map[AccessLevel]int{
	AccessView:  1,
	AccessEdit:  2,
	AccessAdmin: 3,
}

// IsValid checks if the level is one of the known values
func (a AccessLevel) IsValid() bool {
	_, ok := accessRank[a]
	return ok
}

// AtLeast reports whether a satisfies the required level
func (a AccessLevel) AtLeast(required AccessLevel) bool {
	return accessRank[a] >= accessRank[required]
}

// WidgetPermission grants a user access to one widget, optionally expiring
type WidgetPermission struct {
	database.BaseModel

	UserID      string      `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_user_widget" json:"user_id"`
	WidgetID    string      `gorm:"column:widget_id;not null;uniqueIndex:idx_user_widget" json:"widget_id"`
	AccessLevel AccessLevel `gorm:"column:access_level;not null" json:"access_level"`
	GrantedBy   string      `gorm:"column:granted_by;type:uuid" json:"granted_by"`
	ExpiresAt   *time.Time  `gorm:"column:expires_at" json:"expires_at"`
}

func (WidgetPermission) TableName() string {
	return "widget_permissions"
}

// GroupWidgetPermission grants every member of a group access to one widget
type GroupWidgetPermission struct {
	database.BaseModel

	GroupID     string      `gorm:"column:group_id;type:uuid;not null;uniqueIndex:idx_group_widget" json:"group_id"`
	WidgetID    string      `gorm:"column:widget_id;not null;uniqueIndex:idx_group_widget" json:"widget_id"`
	AccessLevel AccessLevel `gorm:"column:access_level;not null" json:"access_level"`
	GrantedBy   string      `gorm:"column:granted_by;type:uuid" json:"granted_by"`
	ExpiresAt   *time.Time  `gorm:"column:expires_at" json:"expires_at"`
}

func (GroupWidgetPermission) TableName() string {
	return "group_widget_permissions"
}

// rolePermissions is the baseline every account holds by role. Admin
// accounts short-circuit the whole check, so only user needs entries.
var rolePermissions = map[user.Role][]string{
	user.RoleUser: {
		"view_dashboard",
		"manage_own_preferences",
		"pair_devices",
	},
}
