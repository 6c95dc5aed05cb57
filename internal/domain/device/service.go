package device

import (
	"errors"
	"log/slog"
	"strings"
	"time"

	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/lumenboard/lumenboard/internal/domain/audit"
	"github.com/lumenboard/lumenboard/internal/domain/auth"
	"github.com/lumenboard/lumenboard/internal/domain/session"
	"github.com/lumenboard/lumenboard/internal/domain/user"
)

var (
	// ErrCodeNotFound is returned when no pairing code matches
	ErrCodeNotFound = errors.New("pairing code not found")
	// ErrCodeExpired is returned when the pairing code has expired
	ErrCodeExpired = errors.New("pairing code expired")
	// ErrCodeAlreadyUsed is returned on re-pair or re-consumption attempts
	ErrCodeAlreadyUsed = errors.New("pairing code already used")
)

// userCodeCharset omits 0/O/1/I so codes survive being read aloud
const userCodeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const userCodeLength = 6

// CodeGrant is handed to the device that requested pairing
type CodeGrant struct {
	DeviceCode string    `json:"device_code"`
	UserCode   string    `json:"user_code"`
	ExpiresAt  time.Time `json:"expires_at"`
	Interval   int       `json:"interval"`
}

// PollResult reports the pairing state to the polling device. Tokens are
// only present when Status is "authorized".
type PollResult struct {
	Status       string        `json:"status"`
	Interval     int           `json:"interval,omitempty"`
	AccessToken  string        `json:"access_token,omitempty"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	ExpiresIn    int           `json:"expires_in,omitempty"`
	User         *user.Summary `json:"user,omitempty"`
}

// Service interface for device pairing operations
type Service interface {
	RequestCode(deviceName string) (*CodeGrant, error)
	Pair(userCode, userID, ip string) error
	Poll(deviceCode string) (*PollResult, error)
}

// service struct for device pairing operations
type service struct {
	repo     Repository
	users    user.Service
	sessions session.Service
	tokens   *auth.TokenService
	audit    audit.Repository
	codeTTL  time.Duration
}

// NewService creates a new device pairing service
func NewService(repo Repository, users user.Service, sessions session.Service, tokens *auth.TokenService, auditRepo audit.Repository, codeTTL time.Duration) Service {
	return &service{
		repo:     repo,
		users:    users,
		sessions: sessions,
		tokens:   tokens,
		audit:    auditRepo,
		codeTTL:  codeTTL,
	}
}

// generateDeviceCode generates the opaque secret the device polls with
func generateDeviceCode() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// generateUserCode generates the short code a user types in
func generateUserCode() (string, error) {
	b := make([]byte, userCodeLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	for i := range b {
		b[i] = userCodeCharset[int(b[i])%len(userCodeCharset)]
	}
	return string(b), nil
}

// RequestCode mints a fresh pairing code pair for an unauthenticated device
func (s *service) RequestCode(deviceName string) (*CodeGrant, error) {
	if err := s.repo.DeleteExpired(time.Now().UTC()); err != nil {
		slog.Warn("failed to sweep expired device codes", "error", err)
	}

	// Retry on the off chance a short user code collides with a live row
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		deviceCode, err := generateDeviceCode()
		if err != nil {
			return nil, err
		}
		userCode, err := generateUserCode()
		if err != nil {
			return nil, err
		}

		code := &DeviceCode{
			DeviceCode: deviceCode,
			UserCode:   userCode,
			DeviceName: deviceName,
			ExpiresAt:  time.Now().UTC().Add(s.codeTTL),
		}

		if err := s.repo.Create(code); err != nil {
			lastErr = err
			continue
		}

		// The device is anonymous until pairing, so no user id yet
		if err := s.audit.Log("", audit.ActionDeviceCodeIssued, "device "+deviceName, ""); err != nil {
			slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionDeviceCodeIssued)
		}

		return &CodeGrant{
			DeviceCode: deviceCode,
			UserCode:   userCode,
			ExpiresAt:  code.ExpiresAt,
			Interval:   PollInterval,
		}, nil
	}

	return nil, lastErr
}

// Pair attaches the authenticated user to an unpaired code
func (s *service) Pair(userCode, userID, ip string) error {
	userCode = strings.ToUpper(strings.TrimSpace(userCode))
	now := time.Now().UTC()

	affected, err := s.repo.MarkPaired(userCode, userID, now)
	if err != nil {
		return err
	}
	if affected == 1 {
		if err := s.audit.Log(userID, audit.ActionDevicePaired, "code "+userCode, ip); err != nil {
			slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionDevicePaired)
		}
		return nil
	}

	// The claim failed; look at the row to say why
	code, err := s.repo.FindByUserCode(userCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCodeNotFound
		}
		return err
	}
	if now.After(code.ExpiresAt) {
		return ErrCodeExpired
	}
	return ErrCodeAlreadyUsed
}

// Poll reports pairing progress and, on the first poll after pairing,
// mints the device's token pair. Subsequent polls of a consumed code fail.
func (s *service) Poll(deviceCode string) (*PollResult, error) {
	code, err := s.repo.FindByDeviceCode(deviceCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	if now.After(code.ExpiresAt) {
		return &PollResult{Status: StatusExpired}, ErrCodeExpired
	}
	if code.ConsumedAt != nil {
		return nil, ErrCodeAlreadyUsed
	}
	if code.UserID == nil {
		return &PollResult{Status: StatusPending, Interval: PollInterval}, nil
	}

	affected, err := s.repo.ClaimConsumption(code.ID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrCodeAlreadyUsed
	}

	u, err := s.users.Get(*code.UserID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrCodeNotFound
	}

	sid := uuid.New()
	access, err := s.tokens.IssueAccessToken(u, sid.String())
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(u, sid.String())
	if err != nil {
		return nil, err
	}

	if _, err := s.sessions.CreateDevice(sid, u.ID, refresh, code.DeviceName, s.tokens.RefreshTTL()); err != nil {
		return nil, err
	}

	if err := s.audit.Log(u.ID.String(), audit.ActionDeviceAuthorized, "device "+code.DeviceName, ""); err != nil {
		slog.Warn("failed to write audit entry", "error", err, "action", audit.ActionDeviceAuthorized)
	}

	return &PollResult{
		Status:       StatusAuthorized,
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
		User:         u.ToSummary(),
	}, nil
}
