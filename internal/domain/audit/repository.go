package audit

import (
	"time"

	"gorm.io/gorm"
)

// Repository interface for audit log operations
type Repository interface {
	Log(userID, action, details, ip string) error
	// List returns newest-first entries, optionally filtered to one user
	List(limit int, userID string) ([]Entry, error)
	TrimOlderThan(cutoff time.Time) error
}

// repository struct for audit log operations
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new audit repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

// Log appends an audit entry
func (r *repository) Log(userID, action, details, ip string) error {
	return r.db.Create(&Entry{
		UserID:  userID,
		Action:  action,
		Details: details,
		IP:      ip,
	}).Error
}

// List returns the most recent entries
func (r *repository) List(limit int, userID string) ([]Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	q := r.db.Order("created_at DESC").Limit(limit)
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}

	var entries []Entry
	if err := q.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// TrimOlderThan deletes entries created before the cutoff
func (r *repository) TrimOlderThan(cutoff time.Time) error {
	return r.db.Where("created_at < ?", cutoff).Delete(&Entry{}).Error
}
