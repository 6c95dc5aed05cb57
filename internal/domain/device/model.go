package device

import (
	"time"

	"github.com/lumenboard/lumenboard/internal/database"
)

// Pairing code lifecycle: a code starts unpaired, an authenticated user
// pairs it, and the polling device consumes it exactly once. Expiry is
// checked at read time; no background job flips state.
type DeviceCode struct {
	database.BaseModel

	DeviceCode string  `gorm:"column:device_code;uniqueIndex;not null" json:"-"`
	UserCode   string  `gorm:"column:user_code;uniqueIndex;not null" json:"user_code"`
	DeviceName string  `gorm:"column:device_name;type:text" json:"device_name"`
	UserID     *string `gorm:"column:user_id;type:uuid" json:"-"`

	ExpiresAt  time.Time  `gorm:"column:expires_at;not null" json:"expires_at"`
	PairedAt   *time.Time `gorm:"column:paired_at" json:"paired_at"`
	ConsumedAt *time.Time `gorm:"column:consumed_at" json:"-"`
}

func (DeviceCode) TableName() string {
	return "device_codes"
}

// Poll statuses reported to the device
const (
	StatusPending    = "pending"
	StatusExpired    = "expired"
	StatusAuthorized = "authorized"
)

// PollInterval is how often the device should poll, in seconds
const PollInterval = 5
