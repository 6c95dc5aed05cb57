package group

import (
	"github.com/lumenboard/lumenboard/internal/database"
)

// Group is an admin-managed collection of users, used to grant widget
// access in bulk.
type Group struct {
	database.BaseModel

	Name        string `gorm:"column:name;unique;not null" json:"name"`
	Description string `gorm:"column:description;type:text" json:"description"`
	Color       string `gorm:"column:color" json:"color"`
	CreatedBy   string `gorm:"column:created_by;type:uuid" json:"created_by"`
}

func (Group) TableName() string {
	return "groups"
}

// Member links a user to a group
type Member struct {
	database.BaseModel

	GroupID string `gorm:"column:group_id;type:uuid;not null;uniqueIndex:idx_group_member" json:"group_id"`
	UserID  string `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_group_member" json:"user_id"`
}

func (Member) TableName() string {
	return "group_members"
}
