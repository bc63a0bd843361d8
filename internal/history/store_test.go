package history

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dextract-fi/swap-gateway/internal/constants"
	"github.com/dextract-fi/swap-gateway/internal/models"
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

func record(i int) *models.SwapRecord {
	return &models.SwapRecord{
		Signature:    fmt.Sprintf("sig-%04d", i),
		Timestamp:    time.Date(2025, 6, 1, 12, 0, i%60, 0, time.UTC),
		InputSymbol:  "SOL",
		OutputSymbol: "USDC",
		InputMint:    constants.WrappedSOLMint,
		OutputMint:   constants.USDCMint,
		AmountIn:     1.5,
		EstimatedOut: 225,
		Status:       models.SwapStatusSuccess,
	}
}

func TestStore_RecentNewestFirst(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, store.Record(ctx, record(i)))
	}

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "sig-0002", got[0].Signature)
	assert.Equal(t, "sig-0000", got[2].Signature)
	assert.Equal(t, "SOL/USDC", got[0].Pair())
}

func TestStore_TrimsToCap(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	for i := 0; i < constants.MaxRecentSwaps+5; i++ {
		require.NoError(t, store.Record(ctx, record(i)))
	}

	got, err := store.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, got, constants.MaxRecentSwaps)
	// The oldest entries fell off.
	assert.Equal(t, fmt.Sprintf("sig-%04d", constants.MaxRecentSwaps+4), got[0].Signature)
}

func TestStore_SkipsCorruptEntries(t *testing.T) {
	client := setupTestRedis(t)
	defer cleanupTestRedis(client)

	store, err := NewStore(client, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, store.Record(ctx, record(1)))
	require.NoError(t, client.LPush(ctx, constants.RedisKeyRecentSwaps, "{not json").Err())

	got, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sig-0001", got[0].Signature)
}
