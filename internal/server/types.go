package server

import "github.com/dextract-fi/swap-gateway/internal/tokendir"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`             // Human-readable error message
	Code    int    `json:"code"`              // HTTP status code
	Details any    `json:"details,omitempty"` // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"`
}

// TokensResponse wraps the token directory listing
type TokensResponse struct {
	Items []tokendir.Token `json:"items"`
	Count int              `json:"count"`
}

// PricesResponse is the mint-to-USD price map
type PricesResponse struct {
	Prices tokendir.PriceMap `json:"prices"`
}

// BalancesResponse maps mint addresses to UI-unit holdings
type BalancesResponse struct {
	Wallet   string             `json:"wallet"`
	Balances map[string]float64 `json:"balances"`
}

// FavoriteToggleResponse reports the state after a toggle
type FavoriteToggleResponse struct {
	Mint     string `json:"mint"`
	Favorite bool   `json:"favorite"`
}

// InsightsAskRequest represents a natural language query request
type InsightsAskRequest struct {
	Question string `json:"question"` // Natural language question about swap history
	Model    string `json:"model"`    // Optional model override
}

// InsightsAskResponse represents the response from an insights query
type InsightsAskResponse struct {
	SQL    string `json:"sql"`
	Answer string `json:"answer"`
	TookMs int64  `json:"took_ms"`
}
