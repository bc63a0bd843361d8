package models

import "time"

// SwapStatus tracks a swap through its lifecycle.
type SwapStatus string

const (
	SwapStatusNone       SwapStatus = ""
	SwapStatusProcessing SwapStatus = "processing"
	SwapStatusSuccess    SwapStatus = "success"
	SwapStatusError      SwapStatus = "error"
)

// SwapRecord is one executed (or attempted) swap, as persisted to the
// recent-swaps list and the history table.
type SwapRecord struct {
	Signature    string     `json:"signature"`
	Timestamp    time.Time  `json:"timestamp"`
	Wallet       string     `json:"wallet"`
	InputMint    string     `json:"inputMint"`
	OutputMint   string     `json:"outputMint"`
	InputSymbol  string     `json:"inputSymbol,omitempty"`
	OutputSymbol string     `json:"outputSymbol,omitempty"`
	AmountIn     float64    `json:"amountIn"`
	EstimatedOut float64    `json:"estimatedOut"`
	SlippageBps  uint16     `json:"slippageBps"`
	Status       SwapStatus `json:"status"`
	Error        string     `json:"error,omitempty"`
}

// Pair renders the swap as "SOL/USDC" style, falling back to mints.
func (r SwapRecord) Pair() string {
	in, out := r.InputSymbol, r.OutputSymbol
	if in == "" {
		in = r.InputMint
	}
	if out == "" {
		out = r.OutputMint
	}
	return in + "/" + out
}
