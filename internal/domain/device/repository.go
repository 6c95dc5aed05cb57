package device

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for pairing code storage
type Repository interface {
	Create(code *DeviceCode) error
	FindByDeviceCode(deviceCode string) (*DeviceCode, error)
	FindByUserCode(userCode string) (*DeviceCode, error)
	// MarkPaired attaches a user to an unexpired, unpaired code. Returns
	// the number of rows claimed (0 or 1).
	MarkPaired(userCode, userID string, now time.Time) (int64, error)
	// ClaimConsumption flips consumed_at exactly once per code
	ClaimConsumption(id uuid.UUID, now time.Time) (int64, error)
	DeleteExpired(now time.Time) error
}

// repository struct for pairing code storage
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new device code repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) Create(code *DeviceCode) error {
	return r.db.Create(code).Error
}

func (r *repository) FindByDeviceCode(deviceCode string) (*DeviceCode, error) {
	var code DeviceCode
	if err := r.db.Where("device_code = ?", deviceCode).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

func (r *repository) FindByUserCode(userCode string) (*DeviceCode, error) {
	var code DeviceCode
	if err := r.db.Where("user_code = ?", userCode).First(&code).Error; err != nil {
		return nil, err
	}
	return &code, nil
}

// MarkPaired claims the code atomically so two users cannot pair it twice
func (r *repository) MarkPaired(userCode, userID string, now time.Time) (int64, error) {
	res := r.db.Model(&DeviceCode{}).
		Where("user_code = ? AND user_id IS NULL AND expires_at > ?", userCode, now).
		Updates(map[string]any{
			"user_id":   userID,
			"paired_at": now,
		})
	return res.RowsAffected, res.Error
}

// ClaimConsumption succeeds for exactly one caller per code
func (r *repository) ClaimConsumption(id uuid.UUID, now time.Time) (int64, error) {
	res := r.db.Model(&DeviceCode{}).
		Where("id = ? AND consumed_at IS NULL", id).
		Update("consumed_at", now)
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteExpired(now time.Time) error {
	return r.db.Where("expires_at <= ?", now).Delete(&DeviceCode{}).Error
}
