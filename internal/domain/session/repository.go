package session

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository interface for session row operations across both tables
type Repository interface {
	CreateSession(sess *Session) error
	CreateDeviceSession(sess *DeviceSession) error
	FindSessionByHash(hash string) (*Session, error)
	FindDeviceSessionByHash(hash string) (*DeviceSession, error)
	FindSessionsByUserID(userID string) ([]Session, error)
	FindDeviceSessionsByUserID(userID string) ([]DeviceSession, error)
	DeleteSession(userID string, id uuid.UUID) (int64, error)
	DeleteDeviceSession(userID string, id uuid.UUID) (int64, error)
	DeleteByID(kind Kind, id uuid.UUID) error
	DeleteAllForUser(userID string) error
	TouchLastUsed(kind Kind, id uuid.UUID, t time.Time) error
	DeleteExpired(now time.Time) error
	CountForUser(userID string) (int64, error)
	CountAll() (int64, error)
}

// repository struct for session operations
type repository struct {
	db *gorm.DB
}

// NewRepository creates a new session repository
func NewRepository(db *gorm.DB) Repository {
	return &repository{db}
}

func (r *repository) CreateSession(sess *Session) error {
	return r.db.Create(sess).Error
}

func (r *repository) CreateDeviceSession(sess *DeviceSession) error {
	return r.db.Create(sess).Error
}

func (r *repository) FindSessionByHash(hash string) (*Session, error) {
	var sess Session
	if err := r.db.Where("refresh_hash = ?", hash).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) FindDeviceSessionByHash(hash string) (*DeviceSession, error) {
	var sess DeviceSession
	if err := r.db.Where("refresh_hash = ?", hash).First(&sess).Error; err != nil {
		return nil, err
	}
	return &sess, nil
}

func (r *repository) FindSessionsByUserID(userID string) ([]Session, error) {
	var sessions []Session
	err := r.db.Where("user_id = ?", userID).Order("last_used_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

func (r *repository) FindDeviceSessionsByUserID(userID string) ([]DeviceSession, error) {
	var sessions []DeviceSession
	err := r.db.Where("user_id = ?", userID).Order("last_used_at DESC").Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DeleteSession deletes a browser session only when it belongs to userID
func (r *repository) DeleteSession(userID string, id uuid.UUID) (int64, error) {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&Session{})
	return res.RowsAffected, res.Error
}

// DeleteDeviceSession deletes a device session only when it belongs to userID
func (r *repository) DeleteDeviceSession(userID string, id uuid.UUID) (int64, error) {
	res := r.db.Where("id = ? AND user_id = ?", id, userID).Delete(&DeviceSession{})
	return res.RowsAffected, res.Error
}

func (r *repository) DeleteByID(kind Kind, id uuid.UUID) error {
	if kind == KindDevice {
		return r.db.Where("id = ?", id).Delete(&DeviceSession{}).Error
	}
	return r.db.Where("id = ?", id).Delete(&Session{}).Error
}

func (r *repository) DeleteAllForUser(userID string) error {
	if err := r.db.Where("user_id = ?", userID).Delete(&Session{}).Error; err != nil {
		return err
	}
	return r.db.Where("user_id = ?", userID).Delete(&DeviceSession{}).Error
}

func (r *repository) TouchLastUsed(kind Kind, id uuid.UUID, t time.Time) error {
	if kind == KindDevice {
		return r.db.Model(&DeviceSession{}).Where("id = ?", id).Update("last_used_at", t).Error
	}
	return r.db.Model(&Session{}).Where("id = ?", id).Update("last_used_at", t).Error
}

func (r *repository) DeleteExpired(now time.Time) error {
	if err := r.db.Where("expires_at <= ?", now).Delete(&Session{}).Error; err != nil {
		return err
	}
	return r.db.Where("expires_at <= ?", now).Delete(&DeviceSession{}).Error
}

func (r *repository) CountForUser(userID string) (int64, error) {
	var sessions, devices int64
	if err := r.db.Model(&Session{}).Where("user_id = ?", userID).Count(&sessions).Error; err != nil {
		return 0, err
	}
	if err := r.db.Model(&DeviceSession{}).Where("user_id = ?", userID).Count(&devices).Error; err != nil {
		return 0, err
	}
	return sessions + devices, nil
}

func (r *repository) CountAll() (int64, error) {
	var sessions, devices int64
	if err := r.db.Model(&Session{}).Count(&sessions).Error; err != nil {
		return 0, err
	}
	if err := r.db.Model(&DeviceSession{}).Count(&devices).Error; err != nil {
		return 0, err
	}
	return sessions + devices, nil
}
