package constants

import "time"

// Cache keys
const (
	CacheKeyTokenList = "tokens:list"
	CacheKeyPriceMap  = "prices:map"
)

// Cache TTLs. Token metadata is stable, prices are not.
const (
	TokenListTTL = 24 * time.Hour
	PriceMapTTL  = 5 * time.Minute
)

// Redis keys
const (
	RedisKeyRecentSwaps  = "swaps:recent"
	RedisKeyFavoritesSet = "favorites:mints"
)

// Limits
const (
	MaxRecentSwaps = 100
	// Jupiter's price endpoint caps the ids parameter at 100 mints.
	PriceBatchSize = 100
)

// Rate limiting
const (
	// Delay between price batches to stay under public API limits.
	DelayBetweenPriceBatches = 200 * time.Millisecond
)

// Slippage defaults, in percent.
const (
	DefaultSlippagePct = 0.5
	MaxSlippagePct     = 50.0
)

// Well-known mint addresses
const (
	WrappedSOLMint = "So11111111111111111111111111111111111111112"
	USDCMint       = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	USDTMint       = "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB"
	BONKMint       = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	JUPMint        = "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN"
	MSOLMint       = "mSoLzYCxHdYgdzU16g5QSh3i5K3z3KZK7ytfqcJm7So"
)

// SPL token program, used for token-account enumeration.
const TokenProgramID = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"

// PopularTokenMints are always kept in the directory even when the price
// feed has no entry for them, and seed the default favorites.
var PopularTokenMints = []string{
	WrappedSOLMint,
	USDCMint,
	USDTMint,
	BONKMint,
	JUPMint,
	MSOLMint,
	"7dHbWXmci3dT8UFYWYZweBLXgycu7Y3iL6trKn1Y7ARj", // stSOL
	"hntyVP6YFm1Hg25TN9WGLqM12b8TQmcknKrdu1oxWux",  // HNT
	"4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", // RAY
}
