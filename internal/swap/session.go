package swap

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dextract-fi/swap-gateway/internal/constants"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/models"
	"github.com/dextract-fi/swap-gateway/internal/tokendir"
)

// debounceDelay is how long edits must settle before a quote request
// goes out. Rapid edits collapse into one request.
const debounceDelay = 500 * time.Millisecond

// quoter is the slice of the Jupiter client a session needs.
type quoter interface {
	Quote(ctx context.Context, req jupiter.QuoteRequest) (*jupiter.QuoteResponse, error)
}

// Session holds the state of one in-progress swap: the selected pair,
// the entered amount, the live quote, and the transaction status. Any
// edit invalidates the current quote immediately and schedules a
// debounced re-quote; late responses from superseded requests are
// discarded by generation.
type Session struct {
	mu sync.Mutex

	fromToken *tokendir.Token
	toToken   *tokendir.Token

	fromAmount  float64
	slippagePct float64

	quote    *jupiter.QuoteResponse
	toAmount float64
	quoting  bool

	txStatus    models.SwapStatus
	txSignature string
	lastError   string

	// generation increments on every edit; a quote response only lands
	// if its generation is still current.
	generation uint64
	debounce   *time.Timer

	api          quoter
	quoteTimeout time.Duration
	notifier     Notifier
	logger       *logrus.Logger
}

type SessionConfig struct {
	API          quoter
	QuoteTimeout time.Duration
	SlippagePct  float64
	Notifier     Notifier
	Logger       *logrus.Logger
}

func NewSession(cfg SessionConfig) *Session {
	if cfg.QuoteTimeout <= 0 {
		cfg.QuoteTimeout = 10 * time.Second
	}
	if cfg.SlippagePct <= 0 {
		cfg.SlippagePct = constants.DefaultSlippagePct
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}
	return &Session{
		api:          cfg.API,
		quoteTimeout: cfg.QuoteTimeout,
		slippagePct:  cfg.SlippagePct,
		notifier:     cfg.Notifier,
		logger:       cfg.Logger,
	}
}

// Snapshot is a consistent copy of the session for rendering.
type Snapshot struct {
	FromToken   *tokendir.Token
	ToToken     *tokendir.Token
	FromAmount  float64
	ToAmount    float64
	SlippagePct float64
	Quote       *jupiter.QuoteResponse
	Quoting     bool
	TxStatus    models.SwapStatus
	TxSignature string
	LastError   string
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		FromToken:   s.fromToken,
		ToToken:     s.toToken,
		FromAmount:  s.fromAmount,
		ToAmount:    s.toAmount,
		SlippagePct: s.slippagePct,
		Quote:       s.quote,
		Quoting:     s.quoting,
		TxStatus:    s.txStatus,
		TxSignature: s.txSignature,
		LastError:   s.lastError,
	}
}

// SetFromToken selects the input token. Selecting the token already on
// the output side swaps sides instead of duplicating the mint.
func (s *Session) SetFromToken(t *tokendir.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != nil && s.toToken != nil && s.toToken.Mint == t.Mint {
		s.toToken = s.fromToken
	}
	s.fromToken = t
	s.invalidateLocked()
}

// SetToToken selects the output token, swapping sides on a collision
// with the input token.
func (s *Session) SetToToken(t *tokendir.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t != nil && s.fromToken != nil && s.fromToken.Mint == t.Mint {
		s.fromToken = s.toToken
	}
	s.toToken = t
	s.invalidateLocked()
}

func (s *Session) SetFromAmount(amount float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if amount < 0 {
		amount = 0
	}
	s.fromAmount = amount
	s.invalidateLocked()
}

func (s *Session) SetSlippage(pct float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if pct < 0 {
		pct = 0
	}
	if pct > constants.MaxSlippagePct {
		pct = constants.MaxSlippagePct
	}
	s.slippagePct = pct
	s.invalidateLocked()
}

// FlipTokens swaps the pair direction. The entered amount carries over
// to the new input side.
func (s *Session) FlipTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fromToken, s.toToken = s.toToken, s.fromToken
	s.invalidateLocked()
}

// invalidateLocked zeroes the quote, bumps the generation, and arms the
// debounce timer. Caller holds s.mu.
func (s *Session) invalidateLocked() {
	s.quote = nil
	s.toAmount = 0
	s.lastError = ""
	s.generation++
	gen := s.generation

	if s.debounce != nil {
		s.debounce.Stop()
	}
	if !s.quotableLocked() {
		s.quoting = false
		return
	}
	s.quoting = true
	s.debounce = time.AfterFunc(debounceDelay, func() {
		s.refreshQuote(gen)
	})
}

func (s *Session) quotableLocked() bool {
	return s.fromToken != nil && s.toToken != nil &&
		s.fromToken.Mint != s.toToken.Mint && s.fromAmount > 0
}

// RefreshQuote forces an immediate re-quote, bypassing the debounce.
func (s *Session) RefreshQuote() {
	s.mu.Lock()
	if !s.quotableLocked() {
		s.mu.Unlock()
		return
	}
	s.generation++
	gen := s.generation
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.quoting = true
	s.mu.Unlock()

	s.refreshQuote(gen)
}

func (s *Session) refreshQuote(gen uint64) {
	s.mu.Lock()
	if gen != s.generation || !s.quotableLocked() {
		s.mu.Unlock()
		return
	}
	from, to := *s.fromToken, *s.toToken
	amount := s.fromAmount
	slippage := s.slippagePct
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.quoteTimeout)
	defer cancel()

	quote, err := s.fetchQuote(ctx, from, to, amount, slippage)

	s.mu.Lock()
	defer s.mu.Unlock()

	// A newer edit superseded this request; drop the response.
	if gen != s.generation {
		s.logger.WithField("generation", gen).Debug("discarding stale quote response")
		return
	}
	s.quoting = false

	if err != nil {
		s.quote = nil
		s.toAmount = 0
		s.lastError = err.Error()
		s.notifier.Error("Quote failed", err.Error())
		return
	}

	s.quote = quote
	s.toAmount = outAmountUI(quote, to.Decimals)
}

func (s *Session) fetchQuote(ctx context.Context, from, to tokendir.Token, amount, slippage float64) (*jupiter.QuoteResponse, error) {
	raw, err := jupiter.ToRawAmount(amount, from.Decimals)
	if err != nil {
		return nil, err
	}
	if raw == 0 {
		return nil, fmt.Errorf("amount too small for %s", from.Symbol)
	}
	bps := jupiter.SlippageToBps(slippage)

	return s.api.Quote(ctx, jupiter.QuoteRequest{
		InputMint:   from.Mint,
		OutputMint:  to.Mint,
		Amount:      strconv.FormatUint(raw, 10),
		SlippageBps: &bps,
	})
}

func outAmountUI(quote *jupiter.QuoteResponse, decimals int) float64 {
	ui, err := jupiter.FromRawAmount(quote.OutAmount, decimals)
	if err != nil {
		return 0
	}
	return ui
}

// setTxState records transaction lifecycle transitions from the
// executor.
func (s *Session) setTxState(status models.SwapStatus, signature, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.txStatus = status
	s.txSignature = signature
	s.lastError = errMsg
}

// ResetAfterSwap clears the amount and quote once a swap lands, keeping
// the selected pair.
func (s *Session) ResetAfterSwap() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fromAmount = 0
	s.quote = nil
	s.toAmount = 0
	s.generation++
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.quoting = false
}
