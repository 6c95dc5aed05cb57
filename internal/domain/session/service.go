package session

import (
	"errors"
	"time"

	"crypto/sha3"
	"encoding/base64"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	// ErrSessionNotFound is returned when no live session backs the request
	ErrSessionNotFound = errors.New("session not found")
)

// Service interface for session operations
type Service interface {
	// Create records a browser session for a freshly minted refresh token.
	// The id is generated by the caller because the refresh token embeds it.
	Create(id, userID uuid.UUID, refreshToken, userAgent, ip string, ttl time.Duration) (*Session, error)
	// CreateDevice records a paired-device session
	CreateDevice(id, userID uuid.UUID, refreshToken, deviceName string, ttl time.Duration) (*DeviceSession, error)
	// FindByToken resolves a raw refresh token to its backing row. Expired
	// rows are treated as missing, so a valid signature alone is never enough.
	FindByToken(refreshToken string) (*Ref, error)
	Delete(ref *Ref) error
	DeleteByID(userID string, id uuid.UUID) error
	DeleteDeviceByID(userID string, id uuid.UUID) error
	DeleteAllForUser(userID string) error
	ListActive(userID string) ([]Session, error)
	ListActiveDevices(userID string) ([]DeviceSession, error)
	TouchLastUsed(ref *Ref) error
	// SweepExpired lazily removes expired rows; invoked from the login path
	SweepExpired() error
	CountForUser(userID string) (int64, error)
	CountAll() (int64, error)
}

// service struct for session operations
type service struct {
	repo Repository
}

// NewService creates a new session service
func NewService(repo Repository) Service {
	return &service{repo}
}

// hashSecret hashes the refresh token using SHA-3-256
func hashSecret(secret string) string {
	h := sha3.Sum256([]byte(secret))
	return base64.RawStdEncoding.EncodeToString(h[:])
}

// Create records a browser session
func (s *service) Create(id, userID uuid.UUID, refreshToken, userAgent, ip string, ttl time.Duration) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		UserID:      userID.String(),
		RefreshHash: hashSecret(refreshToken),
		ExpiresAt:   now.Add(ttl),
		UserAgent:   userAgent,
		IPAddress:   ip,
		LastUsedAt:  now,
	}
	sess.ID = id

	if err := s.repo.CreateSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// CreateDevice records a paired-device session
func (s *service) CreateDevice(id, userID uuid.UUID, refreshToken, deviceName string, ttl time.Duration) (*DeviceSession, error) {
	now := time.Now().UTC()
	sess := &DeviceSession{
		UserID:      userID.String(),
		RefreshHash: hashSecret(refreshToken),
		DeviceName:  deviceName,
		ExpiresAt:   now.Add(ttl),
		LastUsedAt:  now,
	}
	sess.ID = id

	if err := s.repo.CreateDeviceSession(sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// FindByToken resolves a raw refresh token to a live session row
func (s *service) FindByToken(refreshToken string) (*Ref, error) {
	hash := hashSecret(refreshToken)
	now := time.Now().UTC()

	sess, err := s.repo.FindSessionByHash(hash)
	if err == nil {
		if now.After(sess.ExpiresAt) {
			return nil, ErrSessionNotFound
		}
		return &Ref{ID: sess.ID, UserID: sess.UserID, Kind: KindBrowser}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	dev, err := s.repo.FindDeviceSessionByHash(hash)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if now.After(dev.ExpiresAt) {
		return nil, ErrSessionNotFound
	}
	return &Ref{ID: dev.ID, UserID: dev.UserID, Kind: KindDevice}, nil
}

// Delete removes the session row behind a ref
func (s *service) Delete(ref *Ref) error {
	return s.repo.DeleteByID(ref.Kind, ref.ID)
}

// DeleteByID removes a browser session owned by userID
func (s *service) DeleteByID(userID string, id uuid.UUID) error {
	affected, err := s.repo.DeleteSession(userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteDeviceByID removes a device session owned by userID
func (s *service) DeleteDeviceByID(userID string, id uuid.UUID) error {
	affected, err := s.repo.DeleteDeviceSession(userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteAllForUser removes every session of a user, both kinds
func (s *service) DeleteAllForUser(userID string) error {
	return s.repo.DeleteAllForUser(userID)
}

// ListActive returns the user's unexpired browser sessions
func (s *service) ListActive(userID string) ([]Session, error) {
	sessions, err := s.repo.FindSessionsByUserID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	active := sessions[:0]
	for _, sess := range sessions {
		if sess.ExpiresAt.After(now) {
			active = append(active, sess)
		}
	}
	return active, nil
}

// ListActiveDevices returns the user's unexpired device sessions
func (s *service) ListActiveDevices(userID string) ([]DeviceSession, error) {
	sessions, err := s.repo.FindDeviceSessionsByUserID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	active := sessions[:0]
	for _, sess := range sessions {
		if sess.ExpiresAt.After(now) {
			active = append(active, sess)
		}
	}
	return active, nil
}

// TouchLastUsed updates the last used timestamp behind a ref
func (s *service) TouchLastUsed(ref *Ref) error {
	return s.repo.TouchLastUsed(ref.Kind, ref.ID, time.Now().UTC())
}

// SweepExpired removes rows whose expiry has passed
func (s *service) SweepExpired() error {
	return s.repo.DeleteExpired(time.Now().UTC())
}

// CountForUser returns the number of session rows for a user
func (s *service) CountForUser(userID string) (int64, error) {
	return s.repo.CountForUser(userID)
}

// CountAll returns the number of session rows across all users
func (s *service) CountAll() (int64, error) {
	return s.repo.CountAll()
}
