package user

import (
	"time"

	"github.com/lumenboard/lumenboard/internal/database"
)

// Role is the system-wide capability tier of a user
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid checks if the role is one of the known values
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is an account minted from a verified upstream identity. Users are
// never hard-deleted; deactivation flips IsActive and removes sessions.
type User struct {
	database.BaseModel
	Email      string     `gorm:"column:email;unique;not null" json:"email"`
	Name       string     `gorm:"column:name" json:"name"`
	SubjectID  string     `gorm:"column:subject_id;unique;not null" json:"-"`
	Role       Role       `gorm:"column:role;default:user" json:"role"`
	IsActive   bool       `gorm:"column:is_active;default:true" json:"is_active"`
	LastLogin  *time.Time `gorm:"column:last_login" json:"last_login"`
	LastActive *time.Time `gorm:"column:last_active" json:"last_active"`
}

func (User) TableName() string {
	return "users"
}

// Summary is the safe representation returned to clients
type Summary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// ToSummary converts a User to its client-facing summary
func (u *User) ToSummary() *Summary {
	return &Summary{
		ID:    u.ID.String(),
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}
