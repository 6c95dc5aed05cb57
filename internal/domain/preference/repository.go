package preference

import (
	"time"

	"gorm.io/gorm"
)

// Repository interface for preference document storage. The conditional
// update is the concurrency control; no row locks are taken.
type Repository interface {
	Find(userID string) (*Document, error)
	// Insert creates the row at version 1; fails if the row exists
	Insert(userID, document string) error
	// UpdateCAS writes the document only when the stored version still
	// matches expectedVersion, bumping it by one. Returns rows affected.
	UpdateCAS(userID, document string, expectedVersion int) (int64, error)
}

// repository struct for preference document storage
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new preference repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Find(userID string) (*Document, error) {
	var doc Document
	if err := r.db.Where("user_id = ?", userID).First(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *repository) Insert(userID, document string) error {
	now := time.Now().UTC()
	return r.db.Create(&Document{
		UserID:    userID,
		Document:  document,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}).Error
}

func (r *repository) UpdateCAS(userID, document string, expectedVersion int) (int64, error) {
	res := r.db.Model(&Document{}).
		Where("user_id = ? AND version = ?", userID, expectedVersion).
		Updates(map[string]any{
			"document":   document,
			"version":    expectedVersion + 1,
			"updated_at": time.Now().UTC(),
		})
	return res.RowsAffected, res.Error
}
