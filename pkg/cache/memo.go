package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"
)

// Config bounds a Memo. The zero value is an unbounded, non-expiring cache.
type Config struct {
	MaxEntries int
	TTL        time.Duration
}

// Memo memoizes the successful results of fn per key. Concurrent calls for
// the same key share one execution of fn. Failures are never stored.
type Memo[T any] struct {
	name   string
	store  *LRU[T]
	group  singleflight.Group
	logger *slog.Logger
}

// NewMemo creates a memo. name identifies it in logs.
func NewMemo[T any](name string, cfg Config, logger *slog.Logger) *Memo[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Memo[T]{
		name:   name,
		store:  NewLRU[T](cfg.MaxEntries, cfg.TTL),
		logger: logger.With("component", "cache", "cache", name),
	}
}

// Do returns the cached value for key or runs fn to produce it. The returned
// bool is true when the value came from the cache.
func (m *Memo[T]) Do(ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, bool, error) {
	if v, ok := m.store.Get(key); ok {
		m.logger.Debug("cache hit", "key", key)
		return v, true, nil
	}

	v, err, shared := m.group.Do(key, func() (any, error) {
		if v, ok := m.store.Get(key); ok {
			return v, nil
		}
		v, err := fn(ctx)
		if err != nil {
			return v, err
		}
		m.store.Set(key, v)
		return v, nil
	})
	if shared {
		m.logger.Debug("joined in-flight fetch", "key", key)
	}

	result, _ := v.(T)
	return result, false, err
}

// Forget drops key so the next Do runs fn again.
func (m *Memo[T]) Forget(key string) {
	m.store.Delete(key)
	m.group.Forget(key)
}

// Len returns the number of memoized entries.
func (m *Memo[T]) Len() int { return m.store.Len() }

// Key joins parts into a cache key.
func Key(parts ...any) string {
	s := make([]string, len(parts))
	for i, p := range parts {
		s[i] = fmt.Sprint(p)
	}
	return strings.Join(s, "|")
}

// Secret returns a stable digest of a secret for use in keys, so the secret
// itself never sits in memory as a map key or shows up in logs.
func Secret(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
