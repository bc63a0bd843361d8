package swap

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dextract-fi/swap-gateway/internal/constants"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/tokendir"
)

type fakeQuoter struct {
	mu       sync.Mutex
	calls    int32
	requests []jupiter.QuoteRequest
	// gate, when non-nil, blocks each call until a value is received.
	gate      chan *jupiter.QuoteResponse
	responses []*jupiter.QuoteResponse
	err       error
}

func (f *fakeQuoter) Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error) {
	n := atomic.AddInt32(&f.calls, 1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case resp := <-f.gate:
			return resp, f.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if int(n) <= len(f.responses) {
		return f.responses[n-1], nil
	}
	return &jupiter.QuoteResponse{OutAmount: "1000000"}, nil
}

func solToken() *tokendir.Token {
	return &tokendir.Token{Symbol: "SOL", Mint: constants.WrappedSOLMint, Decimals: 9}
}

func usdcToken() *tokendir.Token {
	return &tokendir.Token{Symbol: "USDC", Mint: constants.USDCMint, Decimals: 6}
}

func newTestSession(api quoter) *Session {
	return NewSession(SessionConfig{API: api, QuoteTimeout: 5 * time.Second})
}

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestSession_EditZeroesQuoteImmediately(t *testing.T) {
	api := &fakeQuoter{responses: []*jupiter.QuoteResponse{{OutAmount: "225000000"}}}
	s := newTestSession(api)

	s.SetFromToken(solToken())
	s.SetToToken(usdcToken())
	s.SetFromAmount(1.5)

	waitFor(t, 3*time.Second, func() bool { return s.Snapshot().Quote != nil })
	assert.Equal(t, 225.0, s.Snapshot().ToAmount)

	// The moment the amount changes, the old quote must be gone even
	// though the new one has not arrived yet.
	s.SetFromAmount(3.0)
	snap := s.Snapshot()
	assert.Nil(t, snap.Quote)
	assert.Zero(t, snap.ToAmount)
}

func TestSession_RapidEditsCollapseIntoOneQuote(t *testing.T) {
	api := &fakeQuoter{}
	s := newTestSession(api)

	s.SetFromToken(solToken())
	s.SetToToken(usdcToken())
	for _, amount := range []float64{0.1, 0.5, 1.0, 1.5, 2.0} {
		s.SetFromAmount(amount)
		time.Sleep(20 * time.Millisecond) // well inside the debounce window
	}

	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&api.calls) > 0 })
	time.Sleep(700 * time.Millisecond) // long enough for any stragglers

	assert.Equal(t, int32(1), atomic.LoadInt32(&api.calls),
		"rapid edits must produce exactly one quote request")

	api.mu.Lock()
	defer api.mu.Unlock()
	require.Len(t, api.requests, 1)
	// 2.0 SOL at 9 decimals
	assert.Equal(t, "2000000000", api.requests[0].Amount)
}

func TestSession_StaleQuoteResponseDiscarded(t *testing.T) {
	api := &fakeQuoter{gate: make(chan *jupiter.QuoteResponse)}
	s := newTestSession(api)

	s.SetFromToken(solToken())
	s.SetToToken(usdcToken())
	s.SetFromAmount(1.0)

	// Wait for the first request to be in flight.
	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&api.calls) == 1 })

	// Supersede it while it is still blocked.
	s.SetFromAmount(2.0)

	// Release the stale response; it must not land.
	api.gate <- &jupiter.QuoteResponse{OutAmount: "111000000"}
	time.Sleep(100 * time.Millisecond)
	assert.Nil(t, s.Snapshot().Quote, "superseded response must be discarded")

	// The second request lands normally.
	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&api.calls) == 2 })
	api.gate <- &jupiter.QuoteResponse{OutAmount: "222000000"}

	waitFor(t, 3*time.Second, func() bool { return s.Snapshot().Quote != nil })
	assert.Equal(t, "222000000", s.Snapshot().Quote.OutAmount)
	assert.Equal(t, 222.0, s.Snapshot().ToAmount)
}

func TestSession_NoQuoteWithoutCompletePair(t *testing.T) {
	api := &fakeQuoter{}
	s := newTestSession(api)

	s.SetFromToken(solToken())
	s.SetFromAmount(1.0)
	time.Sleep(700 * time.Millisecond)

	assert.Zero(t, atomic.LoadInt32(&api.calls), "no output token means no quote request")
	assert.False(t, s.Snapshot().Quoting)
}

func TestSession_SelectingOppositeTokenSwapsSides(t *testing.T) {
	api := &fakeQuoter{}
	s := newTestSession(api)

	s.SetFromToken(solToken())
	s.SetToToken(usdcToken())

	// Picking the output token as the new input must flip the pair,
	// never leave the same mint on both sides.
	s.SetFromToken(usdcToken())
	snap := s.Snapshot()
	assert.Equal(t, "USDC", snap.FromToken.Symbol)
	assert.Equal(t, "SOL", snap.ToToken.Symbol)
	assert.NotEqual(t, snap.FromToken.Mint, snap.ToToken.Mint)

	// Same collision from the output side flips back.
	s.SetToToken(usdcToken())
	snap = s.Snapshot()
	assert.Equal(t, "SOL", snap.FromToken.Symbol)
	assert.Equal(t, "USDC", snap.ToToken.Symbol)

	s.SetFromAmount(1.0)
	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&api.calls) > 0 })

	api.mu.Lock()
	defer api.mu.Unlock()
	last := api.requests[len(api.requests)-1]
	assert.Equal(t, constants.WrappedSOLMint, last.InputMint)
	assert.Equal(t, constants.USDCMint, last.OutputMint)
}

func TestSession_FlipTokensInvalidatesQuote(t *testing.T) {
	api := &fakeQuoter{}
	s := newTestSession(api)

	s.SetFromToken(solToken())
	s.SetToToken(usdcToken())
	s.SetFromAmount(1.0)
	waitFor(t, 3*time.Second, func() bool { return s.Snapshot().Quote != nil })

	s.FlipTokens()
	snap := s.Snapshot()
	assert.Nil(t, snap.Quote)
	assert.Equal(t, "USDC", snap.FromToken.Symbol)
	assert.Equal(t, "SOL", snap.ToToken.Symbol)

	waitFor(t, 3*time.Second, func() bool { return atomic.LoadInt32(&api.calls) == 2 })
	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, constants.USDCMint, api.requests[1].InputMint)
}

func TestSession_SlippageClamped(t *testing.T) {
	s := newTestSession(&fakeQuoter{})
	s.SetSlippage(99)
	assert.Equal(t, constants.MaxSlippagePct, s.Snapshot().SlippagePct)

	s.SetSlippage(-1)
	assert.Zero(t, s.Snapshot().SlippagePct)
}
