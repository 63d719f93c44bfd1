package quota

import (
	"errors"
	"sync"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store persists the per-user last-call timestamp. Keeping it behind an
// interface lets the gate run against memory in tests and Postgres in the app.
type Store interface {
	LastCall(userID string) (*time.Time, error)
	SetLastCall(userID string, at time.Time) error
}

// MemoryStore keeps timestamps in a process-local map.
type MemoryStore struct {
	mu    sync.RWMutex
	calls map[string]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{calls: make(map[string]time.Time)}
}

func (s *MemoryStore) LastCall(userID string) (*time.Time, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	at, ok := s.calls[userID]
	if !ok {
		return nil, nil
	}
	return &at, nil
}

func (s *MemoryStore) SetLastCall(userID string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[userID] = at
	return nil
}

// RateLimitState is the persisted row behind GormStore.
type RateLimitState struct {
	UserID    string    `gorm:"primaryKey"`
	LastCall  time.Time `gorm:"not null"`
	UpdatedAt time.Time
}

// gormStore implements Store on the application database.
type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) LastCall(userID string) (*time.Time, error) {
	var state RateLimitState
	err := s.db.Where("user_id = ?", userID).First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state.LastCall, nil
}

func (s *gormStore) SetLastCall(userID string, at time.Time) error {
	state := RateLimitState{UserID: userID, LastCall: at}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_call", "updated_at"}),
	}).Create(&state).Error
}
