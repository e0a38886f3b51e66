package lesson

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store persists lessons.
type Store interface {
	// Create inserts l, assigning an ID when empty, and returns the stored row.
	Create(ctx context.Context, l Lesson) (Lesson, error)
	Get(ctx context.Context, id string) (Lesson, error)
	// List returns all lessons, newest first.
	List(ctx context.Context) ([]Lesson, error)
	MarkGenerating(ctx context.Context, id string) error
	MarkGenerated(ctx context.Context, id, title, content string) error
	MarkFailed(ctx context.Context, id, message string) error
	Delete(ctx context.Context, id string) error
}

// MemoryStore is an in-memory Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	lessons map[string]*memoryRow
	seq     int
	now     func() time.Time
}

type memoryRow struct {
	lesson Lesson
	seq    int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		lessons: make(map[string]*memoryRow),
		now:     time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, l Lesson) (Lesson, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	if l.Status == "" {
		l.Status = StatusGenerating
	}
	now := s.now()
	l.CreatedAt = now
	l.UpdatedAt = now
	if err := l.Validate(); err != nil {
		return Lesson{}, err
	}

	s.seq++
	s.lessons[l.ID] = &memoryRow{lesson: l, seq: s.seq}
	return l, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Lesson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row, ok := s.lessons[id]
	if !ok {
		return Lesson{}, ErrNotFound
	}
	return row.lesson, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Lesson, error) {
	s.mu.RLock()
	rows := make([]*memoryRow, 0, len(s.lessons))
	for _, row := range s.lessons {
		rows = append(rows, row)
	}
	s.mu.RUnlock()

	slices.SortFunc(rows, func(a, b *memoryRow) int {
		if c := b.lesson.CreatedAt.Compare(a.lesson.CreatedAt); c != 0 {
			return c
		}
		return b.seq - a.seq
	})

	out := make([]Lesson, len(rows))
	for i, row := range rows {
		out[i] = row.lesson
	}
	return out, nil
}

func (s *MemoryStore) update(id string, fn func(*Lesson)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.lessons[id]
	if !ok {
		return ErrNotFound
	}
	fn(&row.lesson)
	row.lesson.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) MarkGenerating(_ context.Context, id string) error {
	return s.update(id, func(l *Lesson) {
		l.Status = StatusGenerating
		l.ErrorMessage = nil
	})
}

func (s *MemoryStore) MarkGenerated(_ context.Context, id, title, content string) error {
	return s.update(id, func(l *Lesson) {
		l.Title = title
		l.Content = content
		l.Status = StatusGenerated
		l.ErrorMessage = nil
	})
}

func (s *MemoryStore) MarkFailed(_ context.Context, id, message string) error {
	return s.update(id, func(l *Lesson) {
		l.Status = StatusError
		l.ErrorMessage = &message
	})
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lessons[id]; !ok {
		return ErrNotFound
	}
	delete(s.lessons, id)
	return nil
}
