package swap

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/sirupsen/logrus"

	"github.com/dextract-fi/swap-gateway/internal/history"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/models"
	"github.com/dextract-fi/swap-gateway/internal/wallet"
)

// balanceRefreshDelay gives the RPC node time to reflect post-swap
// balances before they are re-fetched.
const balanceRefreshDelay = 2 * time.Second

// txBuilder is the slice of the Jupiter client the executor needs.
type txBuilder interface {
	SwapTransaction(ctx context.Context, req jupiter.SwapRequest) (*jupiter.SwapResponse, error)
}

// Signer authorizes transactions. An interactive signer returns
// ErrUserRejected when the user declines.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTx(tx *solana.Transaction) error
}

// chain is the slice of the wallet used for sending and confirming.
type chain interface {
	SendTx(ctx context.Context, tx *solana.Transaction, opts *wallet.SendOptions) (string, error)
	GetLatestBlockhash(ctx context.Context, commitment ...string) (solana.Hash, error)
	SignatureStatus(ctx context.Context, signature string, commitment string) (bool, error)
}

// Executor drives a swap end to end: build the transaction from a
// quote, sign, send, confirm, record. It mutates the session's
// transaction status as it goes.
type Executor struct {
	api      txBuilder
	signer   Signer
	chain    chain
	history  *history.Store
	notifier Notifier
	logger   *logrus.Logger

	buildTimeout   time.Duration
	confirmTimeout time.Duration

	// refreshBalances runs shortly after every swap attempt.
	refreshBalances func(ctx context.Context)
	// afterFunc is swappable in tests to avoid real sleeps.
	afterFunc func(d time.Duration, f func()) *time.Timer
}

type ExecutorConfig struct {
	API            txBuilder
	Signer         Signer
	Chain          chain
	History        *history.Store
	Notifier       Notifier
	Logger         *logrus.Logger
	BuildTimeout   time.Duration
	ConfirmTimeout time.Duration

	RefreshBalances func(ctx context.Context)
}

func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.BuildTimeout <= 0 {
		cfg.BuildTimeout = 15 * time.Second
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = 60 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}
	if cfg.Notifier == nil {
		cfg.Notifier = NewLogNotifier(cfg.Logger)
	}
	return &Executor{
		api:             cfg.API,
		signer:          cfg.Signer,
		chain:           cfg.Chain,
		history:         cfg.History,
		notifier:        cfg.Notifier,
		logger:          cfg.Logger,
		buildTimeout:    cfg.BuildTimeout,
		confirmTimeout:  cfg.ConfirmTimeout,
		refreshBalances: cfg.RefreshBalances,
		afterFunc:       time.AfterFunc,
	}
}

// Result is the terminal outcome of one Execute call.
type Result struct {
	Signature string
	Status    models.SwapStatus
	Duration  time.Duration
}

// Execute runs the swap described by the session's current state. The
// session must hold a live quote; any missing precondition fails fast
// with ErrPrecondition.
func (e *Executor) Execute(ctx context.Context, session *Session) (*Result, error) {
	start := time.Now()

	snap := session.Snapshot()
	if err := checkPreconditions(snap); err != nil {
		return nil, err
	}

	session.setTxState(models.SwapStatusProcessing, "", "")

	// The wallet may have paid fees even when the swap did not land, so
	// balances refresh regardless of outcome.
	defer e.scheduleBalanceRefresh()

	tx, err := e.buildTransaction(ctx, snap.Quote)
	if err != nil {
		session.setTxState(models.SwapStatusError, "", err.Error())
		e.notifier.Error("Swap failed", err.Error())
		return nil, err
	}

	// Refresh the blockhash so the window that opened while the user
	// reviewed the quote does not expire the transaction.
	blockhash, err := e.chain.GetLatestBlockhash(ctx, "confirmed")
	if err != nil {
		session.setTxState(models.SwapStatusError, "", err.Error())
		return nil, fmt.Errorf("failed to get blockhash: %w", err)
	}
	tx.Message.RecentBlockhash = blockhash

	if err := e.signer.SignTx(tx); err != nil {
		if errors.Is(err, ErrUserRejected) {
			session.setTxState(models.SwapStatusError, "", ErrUserRejected.Error())
			e.notifier.Info("Swap cancelled", "transaction was not signed")
			return nil, err
		}
		session.setTxState(models.SwapStatusError, "", err.Error())
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := e.chain.SendTx(ctx, tx, nil)
	if err != nil {
		session.setTxState(models.SwapStatusError, "", err.Error())
		e.notifier.Error("Swap failed", err.Error())
		return nil, fmt.Errorf("failed to send transaction: %w", err)
	}

	session.setTxState(models.SwapStatusProcessing, sig, "")
	e.recordSwap(ctx, snap, sig, models.SwapStatusProcessing, "")

	if err := e.confirm(ctx, sig); err != nil {
		session.setTxState(models.SwapStatusError, sig, err.Error())
		e.recordSwap(ctx, snap, sig, models.SwapStatusError, err.Error())
		e.notifier.Error("Swap not confirmed", err.Error())
		return &Result{Signature: sig, Status: models.SwapStatusError, Duration: time.Since(start)}, err
	}

	session.setTxState(models.SwapStatusSuccess, sig, "")
	session.ResetAfterSwap()
	e.recordSwap(ctx, snap, sig, models.SwapStatusSuccess, "")
	e.notifier.Success("Swap confirmed", sig)

	return &Result{Signature: sig, Status: models.SwapStatusSuccess, Duration: time.Since(start)}, nil
}

func (e *Executor) scheduleBalanceRefresh() {
	if e.refreshBalances == nil {
		return
	}
	e.afterFunc(balanceRefreshDelay, func() {
		refreshCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		e.refreshBalances(refreshCtx)
	})
}

func checkPreconditions(snap Snapshot) error {
	if snap.FromToken == nil || snap.ToToken == nil {
		return fmt.Errorf("%w: both tokens must be selected", ErrPrecondition)
	}
	if snap.FromToken.Mint == snap.ToToken.Mint {
		return fmt.Errorf("%w: tokens must differ", ErrPrecondition)
	}
	if snap.FromAmount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrPrecondition)
	}
	if snap.Quote == nil {
		return fmt.Errorf("%w: no quote available", ErrPrecondition)
	}
	return nil
}

func (e *Executor) buildTransaction(ctx context.Context, quote *jupiter.QuoteResponse) (*solana.Transaction, error) {
	buildCtx, cancel := context.WithTimeout(ctx, e.buildTimeout)
	defer cancel()

	resp, err := e.api.SwapTransaction(buildCtx, jupiter.SwapRequest{
		QuoteResponse:    quote,
		UserPublicKey:    e.signer.PublicKey().String(),
		WrapAndUnwrapSol: true,
	})
	if err != nil {
		return nil, err
	}

	raw, err := base64.StdEncoding.DecodeString(resp.SwapTransaction)
	if err != nil {
		return nil, fmt.Errorf("failed to decode swap transaction: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to deserialize swap transaction: %w", err)
	}
	return tx, nil
}

// confirm polls signature status with exponential backoff until the
// transaction is confirmed, fails on-chain, or the hard window
// elapses. An unconfirmed transaction past the window is an error even
// though it may still land later.
func (e *Executor) confirm(ctx context.Context, sig string) error {
	operation := func() (bool, error) {
		confirmed, err := e.chain.SignatureStatus(ctx, sig, "confirmed")
		if err != nil {
			// On-chain failure is terminal; transport errors retry.
			if isTxFailure(err) {
				return false, backoff.Permanent(err)
			}
			return false, err
		}
		if !confirmed {
			return false, fmt.Errorf("not yet confirmed")
		}
		return true, nil
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	policy.MaxInterval = 4 * time.Second

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(e.confirmTimeout))
	if err != nil {
		return &ConfirmationError{Signature: sig, Err: err}
	}
	return nil
}

func isTxFailure(err error) bool {
	return err != nil && strings.Contains(err.Error(), "transaction failed")
}

func (e *Executor) recordSwap(ctx context.Context, snap Snapshot, sig string, status models.SwapStatus, errMsg string) {
	if e.history == nil {
		return
	}
	rec := &models.SwapRecord{
		Signature:    sig,
		Timestamp:    time.Now().UTC(),
		Wallet:       e.signer.PublicKey().String(),
		InputMint:    snap.FromToken.Mint,
		OutputMint:   snap.ToToken.Mint,
		InputSymbol:  snap.FromToken.Symbol,
		OutputSymbol: snap.ToToken.Symbol,
		AmountIn:     snap.FromAmount,
		EstimatedOut: snap.ToAmount,
		SlippageBps:  jupiter.SlippageToBps(snap.SlippagePct),
		Status:       status,
		Error:        errMsg,
	}
	if err := e.history.Record(ctx, rec); err != nil {
		e.logger.WithError(err).Warn("failed to record swap history")
	}
}
