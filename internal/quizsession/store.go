// Package quizsession keeps quiz player sessions between requests.
package quizsession

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

var ErrNotFound = errors.New("quiz session not found")

// Record is a stored quiz session for one lesson. Recorded is set once the
// current attempt's result has been reported.
type Record struct {
	ID        string        `json:"id"`
	LessonID  string        `json:"lesson_id"`
	Session   *quiz.Session `json:"session"`
	Recorded  bool          `json:"recorded"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// Store persists quiz sessions.
type Store interface {
	Create(ctx context.Context, lessonID string, session *quiz.Session) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	// Save overwrites an existing record. Missing or expired records
	// return ErrNotFound.
	Save(ctx context.Context, rec Record) error
	Delete(ctx context.Context, id string) error
}

func newRecord(lessonID string, session *quiz.Session, now time.Time) (Record, error) {
	if session == nil {
		return Record{}, fmt.Errorf("session is nil")
	}
	return Record{
		ID:        uuid.NewString(),
		LessonID:  lessonID,
		Session:   session,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	records map[string]memoryEntry
	now     func() time.Time
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryStore creates an in-memory store. A non-positive ttl uses
// DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{
		ttl:     ttl,
		records: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, lessonID string, session *quiz.Session) (Record, error) {
	rec, err := newRecord(lessonID, session, s.now())
	if err != nil {
		return Record{}, err
	}
	data, err := encode(rec)
	if err != nil {
		return Record{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = memoryEntry{data: data, expiresAt: rec.CreatedAt.Add(s.ttl)}
	return rec, nil
}

// lookup returns the live entry for id, dropping it if expired. Callers
// hold mu.
func (s *MemoryStore) lookup(id string) (memoryEntry, bool) {
	e, ok := s.records[id]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.now().Before(e.expiresAt) {
		delete(s.records, id)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Get(_ context.Context, id string) (Record, error) {
	s.mu.Lock()
	e, ok := s.lookup(id)
	s.mu.Unlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return decode(e.data)
}

func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	now := s.now()
	rec.UpdatedAt = now
	data, err := encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(rec.ID); !ok {
		return ErrNotFound
	}
	s.records[rec.ID] = memoryEntry{data: data, expiresAt: now.Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(id); !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}
