package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	err := s.Put(ctx, "tokens", []byte(`["SOL","USDC"]`), time.Minute)
	require.NoError(t, err)

	got, err := s.Get(ctx, "tokens")
	require.NoError(t, err)
	assert.JSONEq(t, `["SOL","USDC"]`, string(got))
}

func TestMemoryStore_MissWhenNeverWritten(t *testing.T) {
	s := NewMemoryStore()

	_, err := s.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_MissAfterTTL(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	current := base
	s.SetClock(func() time.Time { return current })

	require.NoError(t, s.Put(ctx, "prices", []byte(`{"x":1.5}`), 5*time.Minute))

	// Still valid just before expiry.
	current = base.Add(5*time.Minute - time.Second)
	got, err := s.Get(ctx, "prices")
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1.5}`, string(got))

	// Expired entries read as absent.
	current = base.Add(5*time.Minute + time.Second)
	_, err = s.Get(ctx, "prices")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStore_PutReplacesWholePayload(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte(`{"a":1,"b":2}`), time.Minute))
	require.NoError(t, s.Put(ctx, "k", []byte(`{"a":9}`), time.Minute))

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":9}`, string(got))
}

func TestMemoryStore_Clear(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "k", []byte(`1`), time.Minute))
	require.NoError(t, s.Clear(ctx, "k"))

	_, err := s.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestGetJSONPutJSON(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	in := map[string]float64{"mint-a": 1.25, "mint-b": 0}
	require.NoError(t, PutJSON(ctx, s, "prices", in, time.Minute))

	var out map[string]float64
	require.NoError(t, GetJSON(ctx, s, "prices", &out))
	assert.Equal(t, in, out)
}
