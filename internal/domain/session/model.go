package session

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenboard/lumenboard/internal/database"
)

// Kind tells the two session tables apart in code paths that handle both
type Kind string

const (
	KindBrowser Kind = "browser"
	KindDevice  Kind = "device"
)

// Session is a browser login backed by a refresh token. Only the SHA3-256
// hash of the refresh token is stored; deleting the row revokes it.
type Session struct {
	database.BaseModel

	UserID      string    `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	RefreshHash string    `gorm:"column:refresh_hash;not null;uniqueIndex" json:"-"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null" json:"expires_at"`

	IPAddress string `gorm:"column:ip_address;type:text" json:"ip_address"`
	UserAgent string `gorm:"column:user_agent;type:text" json:"user_agent"`

	LastUsedAt time.Time `gorm:"column:last_used_at" json:"last_used_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// DeviceSession is a paired-device login with the same refresh semantics
// as Session, carrying a device label instead of browser origin metadata.
type DeviceSession struct {
	database.BaseModel

	UserID      string    `gorm:"column:user_id;type:uuid;not null;index" json:"user_id"`
	RefreshHash string    `gorm:"column:refresh_hash;not null;uniqueIndex" json:"-"`
	DeviceName  string    `gorm:"column:device_name;type:text" json:"device_name"`
	ExpiresAt   time.Time `gorm:"column:expires_at;not null" json:"expires_at"`

	LastUsedAt time.Time `gorm:"column:last_used_at" json:"last_used_at"`
}

func (DeviceSession) TableName() string {
	return "device_sessions"
}

// Ref points at a live session row of either kind
type Ref struct {
	ID     uuid.UUID
	UserID string
	Kind   Kind
}
