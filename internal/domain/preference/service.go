package preference

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

var (
	// ErrVersionConflict is returned when the expected version no longer
	// matches the stored one. Nothing is written.
	ErrVersionConflict = errors.New("preference version conflict")
	// ErrInvalidDocument is returned when the stored or submitted JSON is
	// not an object.
	ErrInvalidDocument = errors.New("preferences must be a JSON object")
)

// Snapshot is the decoded state of a user's preferences after a read or
// a successful mutation.
type Snapshot struct {
	Preferences map[string]any `json:"preferences"`
	Version     int            `json:"version"`
	UpdatedAt   *time.Time     `json:"updated_at"`
}

// Service interface for preference operations
type Service interface {
	// Get returns the current snapshot; a user with no row gets an empty
	// document at version 0.
	Get(userID string) (*Snapshot, error)
	// Set replaces the whole document. A nil expectedVersion skips the
	// caller-side check but the write is still atomic against the stored
	// version, so concurrent writers cannot both win.
	Set(userID string, doc map[string]any, expectedVersion *int) (*Snapshot, error)
	// Update deep-merges a partial document into the current one
	Update(userID string, partial map[string]any, expectedVersion *int) (*Snapshot, error)
	// Delete removes dot-delimited paths; missing paths are no-ops
	Delete(userID string, keys []string, expectedVersion *int) (*Snapshot, error)
}

// service struct for preference operations
type service struct {
	repo Repository
}

// NewService creates a new preference service
func NewService(repo Repository) Service {
	return &service{repo}
}

// Get returns the current snapshot
func (s *service) Get(userID string) (*Snapshot, error) {
	doc, err := s.repo.Find(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &Snapshot{Preferences: map[string]any{}, Version: 0}, nil
		}
		return nil, err
	}
	return decode(doc)
}

// Set replaces the whole document under optimistic concurrency
func (s *service) Set(userID string, doc map[string]any, expectedVersion *int) (*Snapshot, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, ErrInvalidDocument
	}

	current, err := s.repo.Find(userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		// First write. An expectation other than 0 means the caller saw
		// state that no longer exists.
		if expectedVersion != nil && *expectedVersion != 0 {
			return nil, ErrVersionConflict
		}
		if err := s.repo.Insert(userID, string(payload)); err != nil {
			// A concurrent first write got there first
			return nil, ErrVersionConflict
		}
		return s.Get(userID)
	}

	base := current.Version
	if expectedVersion != nil {
		if *expectedVersion != current.Version {
			return nil, ErrVersionConflict
		}
		base = *expectedVersion
	}

	affected, err := s.repo.UpdateCAS(userID, string(payload), base)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, ErrVersionConflict
	}

	return s.Get(userID)
}

// Update deep-merges a partial document into the stored one
func (s *service) Update(userID string, partial map[string]any, expectedVersion *int) (*Snapshot, error) {
	snapshot, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != snapshot.Version {
		return nil, ErrVersionConflict
	}

	merged := Merge(snapshot.Preferences, partial)

	// Pin the write to the version we merged against
	base := snapshot.Version
	return s.Set(userID, merged, &base)
}

// Delete removes dot-delimited paths from the stored document
func (s *service) Delete(userID string, keys []string, expectedVersion *int) (*Snapshot, error) {
	snapshot, err := s.Get(userID)
	if err != nil {
		return nil, err
	}
	if expectedVersion != nil && *expectedVersion != snapshot.Version {
		return nil, ErrVersionConflict
	}

	for _, key := range keys {
		DeletePath(snapshot.Preferences, key)
	}

	base := snapshot.Version
	return s.Set(userID, snapshot.Preferences, &base)
}

func decode(doc *Document) (*Snapshot, error) {
	preferences := map[string]any{}
	if doc.Document != "" {
		if err := json.Unmarshal([]byte(doc.Document), &preferences); err != nil {
			return nil, ErrInvalidDocument
		}
	}
	updatedAt := doc.UpdatedAt
	return &Snapshot{
		Preferences: preferences,
		Version:     doc.Version,
		UpdatedAt:   &updatedAt,
	}, nil
}
