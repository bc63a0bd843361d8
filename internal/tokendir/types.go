package tokendir

// Token is a directory entry enriched with price and, when a wallet is
// in scope, balance.
type Token struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Mint     string   `json:"mint"`
	Decimals int      `json:"decimals"`
	LogoURI  string   `json:"logoURI,omitempty"`
	Tags     []string `json:"tags,omitempty"`

	Price   float64 `json:"price,omitempty"`
	Balance float64 `json:"balance,omitempty"`
}

// PriceMap is mint address to USD price.
type PriceMap map[string]float64
