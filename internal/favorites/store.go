package favorites

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/mr-tron/base58"
	"github.com/redis/go-redis/v9"

	"github.com/dextract-fi/swap-gateway/internal/constants"
)

// ErrNotFound is returned when a mint is not in the favorites set.
var ErrNotFound = errors.New("favorite not found")

// Base58 alphabet, 32-44 chars for a Solana address.
var mintRe = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)

// Store keeps the favorited mints as a Redis set. Toggling the same
// mint twice lands back in the original state.
type Store struct {
	client redis.Cmdable
}

func NewStore(client redis.Cmdable) (*Store, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is nil")
	}
	return &Store{client: client}, nil
}

func ValidateMint(mint string) error {
	if !mintRe.MatchString(mint) {
		return fmt.Errorf("invalid mint address")
	}
	if _, err := base58.Decode(mint); err != nil {
		return fmt.Errorf("invalid mint address: %w", err)
	}
	return nil
}

// Toggle flips favorite membership for a mint and reports the new
// state: true means the mint is now a favorite.
func (s *Store) Toggle(ctx context.Context, mint string) (bool, error) {
	if err := ValidateMint(mint); err != nil {
		return false, err
	}

	added, err := s.client.SAdd(ctx, constants.RedisKeyFavoritesSet, mint).Result()
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	if added == 1 {
		return true, nil
	}

	// Already present, so this toggle removes it.
	if err := s.client.SRem(ctx, constants.RedisKeyFavoritesSet, mint).Err(); err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	return false, nil
}

func (s *Store) IsFavorite(ctx context.Context, mint string) (bool, error) {
	if err := ValidateMint(mint); err != nil {
		return false, err
	}
	ok, err := s.client.SIsMember(ctx, constants.RedisKeyFavoritesSet, mint).Result()
	if err != nil {
		return false, fmt.Errorf("check favorite: %w", err)
	}
	return ok, nil
}

func (s *Store) List(ctx context.Context) ([]string, error) {
	mints, err := s.client.SMembers(ctx, constants.RedisKeyFavoritesSet).Result()
	if err != nil {
		return nil, fmt.Errorf("list favorites: %w", err)
	}
	sort.Strings(mints)
	return mints, nil
}

// Remove deletes a mint from the set, erroring when it was never
// favorited.
func (s *Store) Remove(ctx context.Context, mint string) error {
	if err := ValidateMint(mint); err != nil {
		return err
	}
	removed, err := s.client.SRem(ctx, constants.RedisKeyFavoritesSet, mint).Result()
	if err != nil {
		return fmt.Errorf("remove favorite: %w", err)
	}
	if removed == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, constants.RedisKeyFavoritesSet).Err(); err != nil {
		return fmt.Errorf("clear favorites: %w", err)
	}
	return nil
}
