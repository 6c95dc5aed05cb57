package user

import (
	"time"

	"gorm.io/gorm"
)

// Repository interface for user operations
type Repository interface {
	Create(user *User) error
	FindByID(id string) (*User, error)
	FindByEmail(email string) (*User, error)
	FindAll() ([]User, error)
	Count() (int64, error)
	Update(user *User) error
	UpdateRole(id string, role Role) error
	SetActive(id string, active bool) error
	TouchLastActive(id string, t time.Time) error
}

// repository struct for user operations
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Create creates a new user
func (r *repository) Create(user *User) error {
	return r.db.Create(user).Error
}

// FindByID gets a user by ID
func (r *repository) FindByID(id string) (*User, error) {
	var user User
	if err := r.db.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail gets a user by email
func (r *repository) FindByEmail(email string) (*User, error) {
	var user User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// FindAll returns every user, newest first
func (r *repository) FindAll() ([]User, error) {
	var users []User
	if err := r.db.Order("created_at DESC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users
func (r *repository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&User{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Update updates a user
func (r *repository) Update(user *User) error {
	return r.db.Save(user).Error
}

// UpdateRole updates the role column only
func (r *repository) UpdateRole(id string, role Role) error {
	return r.db.Model(&User{}).Where("id = ?", id).Update("role", role).Error
}

// SetActive sets the active flag
func (r *repository) SetActive(id string, active bool) error {
	return r.db.Model(&User{}).Where("id = ?", id).Update("is_active", active).Error
}

// TouchLastActive updates the last activity timestamp
func (r *repository) TouchLastActive(id string, t time.Time) error {
	return r.db.Model(&User{}).Where("id = ?", id).Update("last_active", t).Error
}
