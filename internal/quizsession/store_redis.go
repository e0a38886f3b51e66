package quizsession

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/p-n-ai/pai-lessons/internal/quiz"
)

const keyPrefix = "quiz:session:"

// RedisStore keeps sessions in Redis with a sliding TTL.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

// NewRedisStore creates a Redis-backed store. A non-positive ttl uses
// DefaultTTL.
func NewRedisStore(rdb *redis.Client, ttl time.Duration) (*RedisStore, error) {
	if rdb == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl, now: time.Now}, nil
}

func sessionKey(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Create(ctx context.Context, lessonID string, session *quiz.Session) (Record, error) {
	rec, err := newRecord(lessonID, session, s.now())
	if err != nil {
		return Record{}, err
	}
	data, err := encode(rec)
	if err != nil {
		return Record{}, err
	}
	if err := s.rdb.Set(ctx, sessionKey(rec.ID), data, s.ttl).Err(); err != nil {
		return Record{}, fmt.Errorf("store quiz session: %w", err)
	}
	return rec, nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (Record, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load quiz session: %w", err)
	}
	return decode(data)
}

func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	rec.UpdatedAt = s.now()
	data, err := encode(rec)
	if err != nil {
		return err
	}

	// XX only overwrites a key that still exists.
	err = s.rdb.SetArgs(ctx, sessionKey(rec.ID), data, redis.SetArgs{Mode: "XX", TTL: s.ttl}).Err()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("save quiz session: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, sessionKey(id)).Result()
	if err != nil {
		return fmt.Errorf("delete quiz session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
