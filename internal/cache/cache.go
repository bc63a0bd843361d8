package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMiss is returned for keys that were never written, whose TTL has
// elapsed, or whose backend failed. Callers treat all three identically
// and refetch from upstream.
var ErrMiss = errors.New("cache miss")

// Store is a key/value cache with per-entry TTL metadata. A write
// replaces the entire payload for that key; there is no partial merge.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Clear(ctx context.Context, key string) error
}

// entry is the stored envelope. ExpiresAt is checked on read even when
// the backend enforces its own TTL, so a backend that returns stale
// bytes still yields a miss.
type entry struct {
	Payload   json.RawMessage `json:"payload"`
	StoredAt  time.Time       `json:"stored_at"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func encodeEntry(payload []byte, ttl time.Duration, now time.Time) ([]byte, error) {
	e := entry{
		Payload:   json.RawMessage(payload),
		StoredAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	b, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal cache entry: %w", err)
	}
	return b, nil
}

func decodeEntry(raw []byte, now time.Time) ([]byte, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, fmt.Errorf("unmarshal cache entry: %w", err)
	}
	if now.After(e.ExpiresAt) {
		return nil, ErrMiss
	}
	return e.Payload, nil
}

// GetJSON reads key from s and unmarshals the payload into v.
func GetJSON(ctx context.Context, s Store, key string, v any) error {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("unmarshal cached %s: %w", key, err)
	}
	return nil
}

// PutJSON marshals v and writes it under key with the given TTL.
func PutJSON(ctx context.Context, s Store, key string, v any, ttl time.Duration) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return s.Put(ctx, key, b, ttl)
}
