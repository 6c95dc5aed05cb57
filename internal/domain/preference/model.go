package preference

import (
	"time"
)

// Document is one user's whole preference tree, stored as a JSON blob
// guarded by an optimistic concurrency version. Version starts at 1 on
// first write and increments by exactly one per successful mutation.
type Document struct {
	UserID    string    `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	Document  string    `gorm:"column:document;type:text;not null" json:"-"`
	Version   int       `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Document) TableName() string {
	return "preferences"
}
