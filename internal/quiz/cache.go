package quiz

import (
	"context"
	"encoding/hex"
	"log/slog"
	"time"

	"golang.org/x/crypto/blake2b"
)

const extractCacheTTL = 24 * time.Hour

// JSONCache stores JSON-encoded values by key.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CacheKey returns the cache key for the questions extracted from markdown.
// Identical content always maps to the same key.
func CacheKey(markdown string) string {
	sum := blake2b.Sum256([]byte(markdown))
	return "quiz:v1:" + hex.EncodeToString(sum[:])
}

// ExtractCached is Extract with a read-through cache. Cache errors are logged
// and fall back to extracting directly.
func ExtractCached(ctx context.Context, cache JSONCache, markdown string) []Question {
	if cache == nil {
		return Extract(markdown)
	}

	key := CacheKey(markdown)
	var cached []Question
	found, err := cache.GetJSON(ctx, key, &cached)
	if err != nil {
		slog.Warn("quiz cache read failed", "key", key, "error", err)
	} else if found {
		return cached
	}

	questions := Extract(markdown)
	if questions == nil {
		questions = []Question{}
	}
	if err := cache.SetJSON(ctx, key, questions, extractCacheTTL); err != nil {
		slog.Warn("quiz cache write failed", "key", key, "error", err)
	}
	return questions
}
