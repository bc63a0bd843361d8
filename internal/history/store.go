package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dextract-fi/swap-gateway/internal/constants"
	"github.com/dextract-fi/swap-gateway/internal/models"
)

// Store keeps a capped recent-swaps list in Redis and, when a
// ClickHouse connection is configured, a durable history table behind
// it. The table write is best effort; the recent list is the source
// for the API.
type Store struct {
	client redis.Cmdable
	conn   driver.Conn // nil disables table persistence
	logger *logrus.Logger
}

func NewStore(client redis.Cmdable, conn driver.Conn, logger *logrus.Logger) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Store{client: client, conn: conn, logger: logger}, nil
}

// Record prepends a swap to the recent list and trims it to the cap.
func (s *Store) Record(ctx context.Context, rec *models.SwapRecord) error {
	b, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal swap record: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, constants.RedisKeyRecentSwaps, b)
	pipe.LTrim(ctx, constants.RedisKeyRecentSwaps, 0, constants.MaxRecentSwaps-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record swap: %w", err)
	}

	if s.conn != nil {
		if err := s.insertRow(ctx, rec); err != nil {
			s.logger.WithError(err).WithField("signature", rec.Signature).
				Warn("history table insert failed")
		}
	}
	return nil
}

// Recent returns up to limit swaps, newest first. Corrupt entries are
// skipped.
func (s *Store) Recent(ctx context.Context, limit int64) ([]*models.SwapRecord, error) {
	if limit <= 0 || limit > constants.MaxRecentSwaps {
		limit = constants.MaxRecentSwaps
	}

	vals, err := s.client.LRange(ctx, constants.RedisKeyRecentSwaps, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent swaps: %w", err)
	}

	out := make([]*models.SwapRecord, 0, len(vals))
	for _, v := range vals {
		var rec models.SwapRecord
		if err := json.Unmarshal([]byte(v), &rec); err != nil {
			s.logger.WithError(err).Warn("skipping corrupt swap record")
			continue
		}
		out = append(out, &rec)
	}
	return out, nil
}

func (s *Store) insertRow(ctx context.Context, rec *models.SwapRecord) error {
	query := `
		INSERT INTO swaps (
			signature, timestamp, wallet, pair, input_mint, output_mint,
			amount_in, estimated_out, slippage_bps, status, error
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	err := s.conn.Exec(ctx, query,
		rec.Signature,
		rec.Timestamp,
		rec.Wallet,
		rec.Pair(),
		rec.InputMint,
		rec.OutputMint,
		rec.AmountIn,
		rec.EstimatedOut,
		rec.SlippageBps,
		string(rec.Status),
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to insert swap: %w", err)
	}
	return nil
}
