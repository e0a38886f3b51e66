package ai

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrBudgetExceeded is returned when the daily token budget is used up.
var ErrBudgetExceeded = errors.New("daily AI token budget exceeded")

// Budget caps the tokens spent on generation per UTC day. A limit of zero
// means unlimited.
type Budget interface {
	// Check returns ErrBudgetExceeded once today's usage has reached the limit.
	Check(ctx context.Context) error
	// Record adds tokens to today's usage.
	Record(ctx context.Context, tokens int) error
	// Usage returns today's usage and the limit.
	Usage(ctx context.Context) (used int64, limit int64, err error)
}

func dayKey(now time.Time) string {
	return now.UTC().Format("2006-01-02")
}

func checkLimit(used, limit int64) error {
	if limit > 0 && used >= limit {
		return fmt.Errorf("%w: used %d of %d", ErrBudgetExceeded, used, limit)
	}
	return nil
}

// InMemoryBudget is a single-process budget for development and tests.
type InMemoryBudget struct {
	mu    sync.Mutex
	limit int64
	day   string
	used  int64
	now   func() time.Time
}

// NewInMemoryBudget creates an in-memory budget with a daily token limit.
func NewInMemoryBudget(limit int64) *InMemoryBudget {
	return &InMemoryBudget{limit: limit, now: time.Now}
}

// rollover resets usage at the start of a new day. Callers hold mu.
func (b *InMemoryBudget) rollover() {
	if today := dayKey(b.now()); today != b.day {
		b.day = today
		b.used = 0
	}
}

func (b *InMemoryBudget) Check(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return checkLimit(b.used, b.limit)
}

func (b *InMemoryBudget) Record(_ context.Context, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	b.used += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(_ context.Context) (int64, int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rollover()
	return b.used, b.limit, nil
}

// RedisBudget shares one daily counter across server instances.
type RedisBudget struct {
	rdb    *redis.Client
	prefix string
	limit  int64
	now    func() time.Time
}

// NewRedisBudget creates a Redis-backed budget. Counters live under
// "<prefix>:<yyyy-mm-dd>" and expire two days after first use.
func NewRedisBudget(rdb *redis.Client, prefix string, limit int64) *RedisBudget {
	if prefix == "" {
		prefix = "ai:budget"
	}
	return &RedisBudget{rdb: rdb, prefix: prefix, limit: limit, now: time.Now}
}

func (b *RedisBudget) key() string {
	return b.prefix + ":" + dayKey(b.now())
}

func (b *RedisBudget) used(ctx context.Context) (int64, error) {
	n, err := b.rdb.Get(ctx, b.key()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read budget: %w", err)
	}
	return n, nil
}

func (b *RedisBudget) Check(ctx context.Context) error {
	if b.limit <= 0 {
		return nil
	}
	used, err := b.used(ctx)
	if err != nil {
		return err
	}
	return checkLimit(used, b.limit)
}

func (b *RedisBudget) Record(ctx context.Context, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	key := b.key()
	pipe := b.rdb.TxPipeline()
	pipe.IncrBy(ctx, key, int64(tokens))
	pipe.Expire(ctx, key, 48*time.Hour)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record budget: %w", err)
	}
	return nil
}

func (b *RedisBudget) Usage(ctx context.Context) (int64, int64, error) {
	used, err := b.used(ctx)
	if err != nil {
		return 0, 0, err
	}
	return used, b.limit, nil
}
