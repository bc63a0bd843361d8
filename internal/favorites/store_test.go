package favorites

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dextract-fi/swap-gateway/internal/constants"
)

func setupTestRedis(t *testing.T) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr: "localhost:6379",
		DB:   1, // Use different DB for tests
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := client.Ping(ctx).Err()
	if err != nil {
		t.Skipf("Redis not available: %v", err)
	}

	err = client.FlushDB(ctx).Err()
	require.NoError(t, err)

	return client
}

func cleanupTestRedis(client *redis.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = client.FlushDB(ctx).Err()
	_ = client.Close()
}

func TestStore_ToggleAddsThenRemoves(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	nowFav, err := store.Toggle(ctx, constants.WrappedSOLMint)
	require.NoError(t, err)
	assert.True(t, nowFav)

	fav, err := store.IsFavorite(ctx, constants.WrappedSOLMint)
	require.NoError(t, err)
	assert.True(t, fav)

	// Second toggle removes it; two toggles are a no-op overall.
	nowFav, err = store.Toggle(ctx, constants.WrappedSOLMint)
	require.NoError(t, err)
	assert.False(t, nowFav)

	fav, err = store.IsFavorite(ctx, constants.WrappedSOLMint)
	require.NoError(t, err)
	assert.False(t, fav)
}

func TestStore_ListSorted(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	for _, mint := range []string{constants.USDCMint, constants.WrappedSOLMint, constants.BONKMint} {
		_, err := store.Toggle(ctx, mint)
		require.NoError(t, err)
	}

	mints, err := store.List(ctx)
	require.NoError(t, err)
	assert.Len(t, mints, 3)
	assert.IsIncreasing(t, mints)
}

func TestStore_RemoveMissingMint(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	err = store.Remove(context.Background(), constants.JUPMint)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_RejectsInvalidMint(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	invalid := []string{
		"",
		"short",
		"has spaces in the middle of the address!!",
		"0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl", // non-base58 chars
	}
	for _, mint := range invalid {
		_, err := store.Toggle(ctx, mint)
		assert.Error(t, err, "mint %q should be rejected", mint)
	}
}

func TestStore_Clear(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = store.Toggle(ctx, constants.WrappedSOLMint)
	require.NoError(t, err)

	require.NoError(t, store.Clear(ctx))

	mints, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, mints)
}
