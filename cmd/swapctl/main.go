package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/dextract-fi/swap-gateway/internal/cache"
	"github.com/dextract-fi/swap-gateway/internal/config"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/rpc"
	"github.com/dextract-fi/swap-gateway/internal/swap"
	"github.com/dextract-fi/swap-gateway/internal/tokendir"
	"github.com/dextract-fi/swap-gateway/internal/wallet"
)

var (
	flagFromMint string
	flagToMint   string
	flagAmount   float64
	flagSlippage float64
	flagYes      bool
	flagJSON     bool
)

var rootCmd = &cobra.Command{
	Use:   "swapctl",
	Short: "Command-line client for the swap gateway",
	Long: `swapctl quotes and executes token swaps against Jupiter directly,
using the same engine as the gateway API.

Examples:
  swapctl tokens
  swapctl quote --from So111...112 --to EPjF...t1v --amount 1.5
  swapctl swap --from So111...112 --to EPjF...t1v --amount 1.5 --slippage 0.5
  swapctl balances <wallet-address>`,
	Version: "0.1.0",
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output in JSON format")

	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(quoteCmd)
	rootCmd.AddCommand(swapCmd)
	rootCmd.AddCommand(balancesCmd)

	for _, cmd := range []*cobra.Command{quoteCmd, swapCmd} {
		cmd.Flags().StringVar(&flagFromMint, "from", "", "Input token mint address")
		cmd.Flags().StringVar(&flagToMint, "to", "", "Output token mint address")
		cmd.Flags().Float64Var(&flagAmount, "amount", 0, "Amount of the input token, UI units")
		cmd.Flags().Float64Var(&flagSlippage, "slippage", 0.5, "Slippage tolerance in percent")
		_ = cmd.MarkFlagRequired("from")
		_ = cmd.MarkFlagRequired("to")
		_ = cmd.MarkFlagRequired("amount")
	}
	swapCmd.Flags().BoolVarP(&flagYes, "yes", "y", false, "Skip the signing confirmation prompt")
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	return logger
}

func newDirectory(cfg *config.Config, logger *logrus.Logger) (*tokendir.Directory, *jupiter.Client) {
	jup := jupiter.NewClient(cfg.JupiterBaseURL, cfg.JupiterTokenURL, cfg.JupiterPriceURL, cfg.JupiterAPIKey)
	chain := rpc.NewClient(rpc.ClientConfig{
		BaseURL:      cfg.RPCUrl,
		Timeout:      cfg.HTTPTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Logger:       logger,
	})
	return tokendir.NewDirectory(jup, chain, cache.NewMemoryStore(), logger), jup
}

var tokensCmd = &cobra.Command{
	Use:     "tokens",
	Aliases: []string{"ls"},
	Short:   "List the token directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := newLogger()
		directory, _ := newDirectory(cfg, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		tokens, err := directory.ListTokens(ctx, false)
		if err != nil {
			return err
		}

		if flagJSON {
			data, _ := json.MarshalIndent(tokens, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		for _, t := range tokens {
			if t.Price > 0 {
				fmt.Printf("%-10s %12.6f USD  %s\n", t.Symbol, t.Price, t.Mint)
			} else {
				fmt.Printf("%-10s %16s  %s\n", t.Symbol, "-", t.Mint)
			}
		}
		fmt.Printf("\n%d tokens\n", len(tokens))
		return nil
	},
}

var quoteCmd = &cobra.Command{
	Use:   "quote",
	Short: "Fetch a quote for a pair without executing",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := newLogger()
		directory, jup := newDirectory(cfg, logger)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.QuoteTimeout)
		defer cancel()

		from, err := directory.Lookup(ctx, flagFromMint)
		if err != nil {
			return err
		}
		to, err := directory.Lookup(ctx, flagToMint)
		if err != nil {
			return err
		}

		raw, err := jupiter.ToRawAmount(flagAmount, from.Decimals)
		if err != nil {
			return err
		}
		bps := jupiter.SlippageToBps(flagSlippage)

		quote, err := jup.Quote(ctx, jupiter.QuoteRequest{
			InputMint:   from.Mint,
			OutputMint:  to.Mint,
			Amount:      fmt.Sprintf("%d", raw),
			SlippageBps: &bps,
		})
		if err != nil {
			return err
		}

		if flagJSON {
			data, _ := json.MarshalIndent(quote, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		out, err := jupiter.FromRawAmount(quote.OutAmount, to.Decimals)
		if err != nil {
			return err
		}
		fmt.Printf("%g %s -> %g %s (impact %s%%, slippage %dbps, %d hops)\n",
			flagAmount, from.Symbol, out, to.Symbol,
			quote.PriceImpactPct, quote.SlippageBps, len(quote.RoutePlan))
		return nil
	},
}

var swapCmd = &cobra.Command{
	Use:   "swap",
	Short: "Quote and execute a swap with the configured wallet",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := newLogger()
		directory, jup := newDirectory(cfg, logger)

		w, err := wallet.NewWallet(wallet.WalletConfig{
			RPCURL:     cfg.RPCUrl,
			PrivateKey: os.Getenv("WALLET_PRIVATE_KEY"),
		})
		if err != nil {
			return err
		}

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		from, err := directory.Lookup(ctx, flagFromMint)
		if err != nil {
			return err
		}
		to, err := directory.Lookup(ctx, flagToMint)
		if err != nil {
			return err
		}

		session := swap.NewSession(swap.SessionConfig{
			API:          jup,
			QuoteTimeout: cfg.QuoteTimeout,
			SlippagePct:  flagSlippage,
			Logger:       logger,
		})
		session.SetFromToken(from)
		session.SetToToken(to)
		session.SetFromAmount(flagAmount)
		session.RefreshQuote()

		snap := session.Snapshot()
		if snap.Quote == nil {
			return fmt.Errorf("no quote available: %s", snap.LastError)
		}
		fmt.Printf("Quote: %g %s -> %g %s (slippage %.2f%%)\n",
			snap.FromAmount, from.Symbol, snap.ToAmount, to.Symbol, snap.SlippagePct)

		executor := swap.NewExecutor(swap.ExecutorConfig{
			API:            jup,
			Signer:         &promptSigner{Wallet: w, skip: flagYes},
			Chain:          w,
			BuildTimeout:   cfg.SwapBuildTimeout,
			ConfirmTimeout: cfg.ConfirmTimeout,
		})

		res, err := executor.Execute(ctx, session)
		if err != nil {
			return err
		}
		fmt.Printf("Swap confirmed in %s: %s\n", res.Duration.Round(time.Millisecond), res.Signature)
		return nil
	},
}

var balancesCmd = &cobra.Command{
	Use:   "balances <wallet-address>",
	Short: "Show native and SPL token balances for a wallet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		logger := newLogger()
		directory, _ := newDirectory(cfg, logger)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		balances, err := directory.Balances(ctx, args[0])
		if err != nil {
			return err
		}

		if flagJSON {
			data, _ := json.MarshalIndent(balances, "", "  ")
			fmt.Println(string(data))
			return nil
		}
		if len(balances) == 0 {
			fmt.Println("no balances (is the address valid?)")
			return nil
		}
		for mint, amount := range balances {
			fmt.Printf("%-44s %g\n", mint, amount)
		}
		return nil
	},
}

// promptSigner wraps the wallet with an interactive confirmation. A
// declined prompt surfaces as a user rejection, not a failure.
type promptSigner struct {
	*wallet.Wallet
	skip bool
}

func (s *promptSigner) SignTx(tx *solana.Transaction) error {
	if !s.skip {
		fmt.Printf("Sign and send with wallet %s? [y/N]: ", s.Address())
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return swap.ErrUserRejected
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		if answer != "y" && answer != "yes" {
			return swap.ErrUserRejected
		}
	}
	return s.Wallet.SignTx(tx)
}
