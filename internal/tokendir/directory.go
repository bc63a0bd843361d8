package tokendir

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/dextract-fi/swap-gateway/internal/cache"
	"github.com/dextract-fi/swap-gateway/internal/constants"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/rpc"
)

// maxPricedTokens bounds how much of the directory gets priced per
// refresh. Ten batches at the upstream cap.
const maxPricedTokens = 10 * constants.PriceBatchSize

// tokenAPI is the slice of the Jupiter client the directory needs.
type tokenAPI interface {
	Tokens(ctx context.Context) ([]jupiter.TokenListEntry, error)
	Prices(ctx context.Context, mints []string) (map[string]float64, error)
}

// chainAPI is the slice of the RPC client used for balance queries.
type chainAPI interface {
	GetBalance(ctx context.Context, address string) (uint64, error)
	GetTokenAccountsByOwner(ctx context.Context, owner string, programID string) ([]rpc.TokenAccount, error)
}

// Directory serves the token list with cached metadata and prices.
// Upstream failures degrade to cached or fallback data; ListTokens
// never returns an empty list. List and price refreshes are guarded
// independently so one cannot starve the other.
type Directory struct {
	api        tokenAPI
	chain      chainAPI
	store      cache.Store
	logger     *logrus.Logger
	listGuard  *refreshGuard
	priceGuard *refreshGuard
	limiter    *rate.Limiter
}

func NewDirectory(api tokenAPI, chain chainAPI, store cache.Store, logger *logrus.Logger) *Directory {
	if logger == nil {
		logger = logrus.New()
	}
	return &Directory{
		api:        api,
		chain:      chain,
		store:      store,
		logger:     logger,
		listGuard:  newRefreshGuard(defaultStuckTimeout),
		priceGuard: newRefreshGuard(defaultStuckTimeout),
		// One price batch per inter-batch delay, small burst for the
		// first batches of a refresh.
		limiter: rate.NewLimiter(rate.Every(constants.DelayBetweenPriceBatches), 1),
	}
}

// ListTokens returns the directory, serving from cache when valid. With
// forceRefresh the cache is bypassed but a concurrent refresh still
// collapses into the one in flight. The result always contains at least
// the core fallback set.
func (d *Directory) ListTokens(ctx context.Context, forceRefresh bool) ([]Token, error) {
	if !forceRefresh {
		var cached []Token
		if err := cache.GetJSON(ctx, d.store, constants.CacheKeyTokenList, &cached); err == nil && len(cached) > 0 {
			// Prices may have expired ahead of the list; re-price in the
			// background without delaying this response.
			go d.refreshStalePrices(cached)
			return d.withPrices(ctx, cached), nil
		}
	}

	if !d.listGuard.tryAcquire() {
		// Another refresh is in flight; wait for its result and serve
		// what it cached.
		d.listGuard.awaitRelease(ctx)
		var cached []Token
		if err := cache.GetJSON(ctx, d.store, constants.CacheKeyTokenList, &cached); err == nil && len(cached) > 0 {
			return d.withPrices(ctx, cached), nil
		}
		return fallbackTokens(), nil
	}
	defer d.listGuard.release()

	tokens, err := d.refresh(ctx)
	if err != nil {
		d.logger.WithError(err).Warn("token refresh failed, serving fallback set")
		var cached []Token
		if cerr := cache.GetJSON(ctx, d.store, constants.CacheKeyTokenList, &cached); cerr == nil && len(cached) > 0 {
			return d.withPrices(ctx, cached), nil
		}
		return fallbackTokens(), nil
	}
	return tokens, nil
}

// refresh pulls the upstream list, prices a bounded prefix of it, keeps
// tokens that are popular or priced, and caches both artifacts under
// their own TTLs.
func (d *Directory) refresh(ctx context.Context) ([]Token, error) {
	entries, err := d.api.Tokens(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch token list: %w", err)
	}

	popular := make(map[string]bool, len(constants.PopularTokenMints))
	for _, m := range constants.PopularTokenMints {
		popular[m] = true
	}

	// Price the popular set first, then the head of the list.
	mints := make([]string, 0, maxPricedTokens)
	seen := make(map[string]bool, maxPricedTokens)
	for _, m := range constants.PopularTokenMints {
		mints = append(mints, m)
		seen[m] = true
	}
	for _, e := range entries {
		if len(mints) >= maxPricedTokens {
			break
		}
		if !seen[e.Address] {
			mints = append(mints, e.Address)
			seen[e.Address] = true
		}
	}

	prices := d.fetchPricesBatched(ctx, mints)

	tokens := make([]Token, 0, len(entries))
	for _, e := range entries {
		price, priced := prices[e.Address]
		if !popular[e.Address] && !priced {
			continue
		}
		tokens = append(tokens, Token{
			Symbol:   e.Symbol,
			Name:     e.Name,
			Mint:     e.Address,
			Decimals: e.Decimals,
			LogoURI:  e.LogoURI,
			Tags:     e.Tags,
			Price:    price,
		})
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("upstream list yielded no usable tokens")
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		pi, pj := popular[tokens[i].Mint], popular[tokens[j].Mint]
		if pi != pj {
			return pi
		}
		return tokens[i].Symbol < tokens[j].Symbol
	})

	// Cache writes are best effort; a dead cache only costs refetches.
	_ = cache.PutJSON(ctx, d.store, constants.CacheKeyTokenList, tokens, constants.TokenListTTL)
	_ = cache.PutJSON(ctx, d.store, constants.CacheKeyPriceMap, PriceMap(prices), constants.PriceMapTTL)

	return tokens, nil
}

// RefreshPrices re-fetches prices for the given mints and merges them
// into the cached price map. Concurrent callers collapse into one
// refresh; losers get the cached map.
func (d *Directory) RefreshPrices(ctx context.Context, mints []string) (PriceMap, error) {
	if len(mints) == 0 {
		mints = constants.PopularTokenMints
	}

	if !d.priceGuard.tryAcquire() {
		d.priceGuard.awaitRelease(ctx)
		var cached PriceMap
		if err := cache.GetJSON(ctx, d.store, constants.CacheKeyPriceMap, &cached); err == nil {
			return cached, nil
		}
		return PriceMap{}, nil
	}
	defer d.priceGuard.release()

	fresh := d.fetchPricesBatched(ctx, mints)
	if len(fresh) == 0 {
		return nil, fmt.Errorf("no price batch succeeded for %d mints", len(mints))
	}

	merged := PriceMap{}
	_ = cache.GetJSON(ctx, d.store, constants.CacheKeyPriceMap, &merged)
	for mint, price := range fresh {
		merged[mint] = price
	}
	_ = cache.PutJSON(ctx, d.store, constants.CacheKeyPriceMap, merged, constants.PriceMapTTL)

	return merged, nil
}

// refreshStalePrices re-prices the cached directory when the price map
// has expired. It runs in the background; ListTokens callers never wait
// on it.
func (d *Directory) refreshStalePrices(tokens []Token) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var cached PriceMap
	if err := cache.GetJSON(ctx, d.store, constants.CacheKeyPriceMap, &cached); err == nil && len(cached) > 0 {
		return // still fresh
	}

	mints := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if len(mints) >= maxPricedTokens {
			break
		}
		mints = append(mints, t.Mint)
	}
	if _, err := d.RefreshPrices(ctx, mints); err != nil {
		d.logger.WithError(err).Debug("background price refresh failed")
	}
}

// Prices returns the cached price map, refreshing it when expired.
func (d *Directory) Prices(ctx context.Context) (PriceMap, error) {
	var cached PriceMap
	if err := cache.GetJSON(ctx, d.store, constants.CacheKeyPriceMap, &cached); err == nil && len(cached) > 0 {
		return cached, nil
	}
	return d.RefreshPrices(ctx, nil)
}

// fetchPricesBatched splits mints into upstream-sized batches, pacing
// requests with the limiter. A failed batch is logged and skipped; its
// mints simply stay unpriced this cycle.
func (d *Directory) fetchPricesBatched(ctx context.Context, mints []string) map[string]float64 {
	prices := make(map[string]float64, len(mints))

	for start := 0; start < len(mints); start += constants.PriceBatchSize {
		end := start + constants.PriceBatchSize
		if end > len(mints) {
			end = len(mints)
		}

		if err := d.limiter.Wait(ctx); err != nil {
			d.logger.WithError(err).Debug("price batching interrupted")
			break
		}

		batch, err := d.api.Prices(ctx, mints[start:end])
		if err != nil {
			d.logger.WithError(err).WithFields(logrus.Fields{
				"batch_start": start,
				"batch_size":  end - start,
			}).Warn("price batch failed, skipping")
			continue
		}
		for mint, price := range batch {
			prices[mint] = price
		}
	}

	return prices
}

// withPrices overlays the cached price map onto a token slice.
func (d *Directory) withPrices(ctx context.Context, tokens []Token) []Token {
	var prices PriceMap
	if err := cache.GetJSON(ctx, d.store, constants.CacheKeyPriceMap, &prices); err != nil || len(prices) == 0 {
		return tokens
	}
	out := make([]Token, len(tokens))
	copy(out, tokens)
	for i := range out {
		if p, ok := prices[out[i].Mint]; ok {
			out[i].Price = p
		}
	}
	return out
}

// Balances fetches native SOL plus SPL holdings for a wallet in
// parallel. An invalid address is logged and yields an empty map, not
// an error; a failed side degrades to zero/empty for that portion only,
// so one sick RPC path never blanks the whole wallet view.
func (d *Directory) Balances(ctx context.Context, owner string) (map[string]float64, error) {
	if _, err := base58.Decode(owner); err != nil || owner == "" {
		d.logger.WithField("owner", owner).Warn("invalid wallet address, returning empty balances")
		return map[string]float64{}, nil
	}

	var (
		lamports uint64
		accounts []rpc.TokenAccount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		v, err := d.chain.GetBalance(gctx, owner)
		if err != nil {
			d.logger.WithError(err).WithField("owner", owner).Warn("native balance query failed, reporting zero")
			return nil
		}
		lamports = v
		return nil
	})
	g.Go(func() error {
		v, err := d.chain.GetTokenAccountsByOwner(gctx, owner, constants.TokenProgramID)
		if err != nil {
			d.logger.WithError(err).WithField("owner", owner).Warn("token account query failed, reporting none")
			return nil
		}
		accounts = v
		return nil
	})
	_ = g.Wait() // per-side failures already handled

	balances := make(map[string]float64, len(accounts)+1)
	balances[constants.WrappedSOLMint] = float64(lamports) / 1e9
	for _, a := range accounts {
		balances[a.Mint] = a.UIAmount
	}
	return balances, nil
}

// fallbackTokens is the minimal always-available set.
func fallbackTokens() []Token {
	return []Token{
		{
			Symbol:   "SOL",
			Name:     "Solana",
			Mint:     constants.WrappedSOLMint,
			Decimals: 9,
		},
		{
			Symbol:   "USDC",
			Name:     "USD Coin",
			Mint:     constants.USDCMint,
			Decimals: 6,
		},
	}
}

// Lookup finds a token by mint in the current directory.
func (d *Directory) Lookup(ctx context.Context, mint string) (*Token, error) {
	tokens, err := d.ListTokens(ctx, false)
	if err != nil {
		return nil, err
	}
	for i := range tokens {
		if tokens[i].Mint == mint {
			return &tokens[i], nil
		}
	}
	return nil, fmt.Errorf("unknown token mint %s", mint)
}

// SetGuardStuckTimeout tunes guard eviction. Tests only.
func (d *Directory) SetGuardStuckTimeout(timeout time.Duration) {
	d.listGuard = newRefreshGuard(timeout)
	d.priceGuard = newRefreshGuard(timeout)
}
