package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/dextract-fi/swap-gateway/internal/favorites"
	"github.com/dextract-fi/swap-gateway/internal/history"
	"github.com/dextract-fi/swap-gateway/internal/insights"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/tokendir"
)

// Handlers contains all dependencies for API endpoint handlers
type Handlers struct {
	Directory *tokendir.Directory // Token directory with cached metadata and prices
	Favorites *favorites.Store    // Redis-backed favorite mints
	History   *history.Store      // Recent swaps list
	Jupiter   *jupiter.Client     // Quote API client

	Insights           *insights.Agent // NL query agent over swap history (optional)
	InsightsBaseConfig insights.AgentConfig

	DevMode bool
	Logger  *logrus.Logger
}

// err returns a standardized JSON error response
// In dev mode, includes additional error details for debugging
func (h *Handlers) err(c echo.Context, code int, msg string, details any) error {
	resp := ErrorResponse{Error: msg, Code: code}
	if h.DevMode && details != nil {
		resp.Details = details
	}
	return c.JSON(code, resp)
}

// withTimeout creates a context with timeout, defaulting to 10 seconds if duration <= 0
func (h *Handlers) withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		d = 10 * time.Second
	}
	return context.WithTimeout(ctx, d)
}

// Health returns a simple health check endpoint
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{OK: true})
}

// Tokens returns the token directory. Pass refresh=true to bypass the
// cache; concurrent refreshes collapse into one upstream fetch.
func (h *Handlers) Tokens(c echo.Context) error {
	refresh := false
	if v := strings.TrimSpace(c.QueryParam("refresh")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid refresh", map[string]any{"refresh": "must be boolean"})
		}
		refresh = b
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	items, err := h.Directory.ListTokens(ctx, refresh)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list tokens", nil)
	}
	return c.JSON(http.StatusOK, TokensResponse{Items: items, Count: len(items)})
}

// Prices returns the cached price map, refreshing when expired.
func (h *Handlers) Prices(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	prices, err := h.Directory.Prices(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get prices", nil)
	}
	return c.JSON(http.StatusOK, PricesResponse{Prices: prices})
}

// Balances returns native and SPL holdings for a wallet. An invalid
// address yields an empty map rather than an error.
func (h *Handlers) Balances(c echo.Context) error {
	wallet := strings.TrimSpace(c.Param("wallet"))
	if wallet == "" {
		return h.err(c, http.StatusBadRequest, "invalid wallet", nil)
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 15*time.Second)
	defer cancel()

	balances, err := h.Directory.Balances(ctx, wallet)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get balances", nil)
	}
	return c.JSON(http.StatusOK, BalancesResponse{Wallet: wallet, Balances: balances})
}

// RecentSwaps returns the most recent swaps with optional limit parameter
// Accepts limit query parameter (default: 100, range: 1-100)
func (h *Handlers) RecentSwaps(c echo.Context) error {
	limitStr := c.QueryParam("limit")
	limit := 100
	if limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "must be an integer"})
		}
		limit = n
	}
	if limit < 1 || limit > 100 {
		return h.err(c, http.StatusBadRequest, "invalid limit", map[string]any{"limit": "min 1 max 100"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.History.Recent(ctx, int64(limit))
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to get swaps", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FavoritesList returns all favorited mints
func (h *Handlers) FavoritesList(c echo.Context) error {
	ctx, cancel := h.withTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, err := h.Favorites.List(ctx)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to list favorites", nil)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": items})
}

// FavoritesToggle flips favorite state for a mint and returns the new state
func (h *Handlers) FavoritesToggle(c echo.Context) error {
	mint := c.Param("mint")
	if err := favorites.ValidateMint(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	fav, err := h.Favorites.Toggle(ctx, mint)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "failed to toggle favorite", nil)
	}
	return c.JSON(http.StatusOK, FavoriteToggleResponse{Mint: mint, Favorite: fav})
}

// FavoritesDelete removes a mint from the favorites set
// Returns 204 No Content on successful deletion
func (h *Handlers) FavoritesDelete(c echo.Context) error {
	mint := c.Param("mint")
	if err := favorites.ValidateMint(mint); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid mint", map[string]any{"mint": "invalid format"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 3*time.Second)
	defer cancel()

	if err := h.Favorites.Remove(ctx, mint); err != nil {
		if errors.Is(err, favorites.ErrNotFound) {
			return h.err(c, http.StatusNotFound, "favorite not found", nil)
		}
		return h.err(c, http.StatusInternalServerError, "failed to remove favorite", nil)
	}
	return c.NoContent(http.StatusNoContent)
}

// InsightsAsk processes natural language questions about swap history
// Supports optional model override for one-off requests
func (h *Handlers) InsightsAsk(c echo.Context) error {
	if h.Insights == nil {
		return h.err(c, http.StatusBadRequest, "insights is not configured", nil)
	}

	var req InsightsAskRequest
	if err := c.Bind(&req); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid json", nil)
	}
	req.Question = strings.TrimSpace(req.Question)
	if req.Question == "" {
		return h.err(c, http.StatusBadRequest, "question is required", map[string]any{"question": "required"})
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 45*time.Second)
	defer cancel()

	start := time.Now()

	agent := h.Insights
	if m := strings.TrimSpace(req.Model); m != "" {
		cfg := h.InsightsBaseConfig
		cfg.Model = m
		tmp, err := insights.NewAgent(ctx, cfg)
		if err != nil {
			return h.err(c, http.StatusInternalServerError, "failed to create insights agent", nil)
		}
		defer func() {
			_ = tmp.Close()
		}()
		agent = tmp
	}

	res, err := agent.Ask(ctx, req.Question)
	if err != nil {
		return h.err(c, http.StatusInternalServerError, "insights ask failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, InsightsAskResponse{SQL: res.SQL, Answer: res.Answer, TookMs: time.Since(start).Milliseconds()})
}
