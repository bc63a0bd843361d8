package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/dextract-fi/swap-gateway/internal/jupiter"
)

// Quote proxies a quote request to the upstream API. Input validation
// happens locally so malformed pairs never leave the gateway.
func (h *Handlers) Quote(c echo.Context) error {
	if h.Jupiter == nil {
		return h.err(c, http.StatusBadRequest, "jupiter is not configured", nil)
	}

	inputMint := strings.TrimSpace(c.QueryParam("inputMint"))
	outputMint := strings.TrimSpace(c.QueryParam("outputMint"))
	amountStr := strings.TrimSpace(c.QueryParam("amount"))

	if inputMint == "" {
		return h.err(c, http.StatusBadRequest, "invalid inputMint", map[string]any{"inputMint": "required"})
	}
	if outputMint == "" {
		return h.err(c, http.StatusBadRequest, "invalid outputMint", map[string]any{"outputMint": "required"})
	}
	if amountStr == "" {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "required"})
	}
	if _, err := strconv.ParseUint(amountStr, 10, 64); err != nil {
		return h.err(c, http.StatusBadRequest, "invalid amount", map[string]any{"amount": "must be uint64"})
	}

	var slippageBps *uint16
	if v := strings.TrimSpace(c.QueryParam("slippageBps")); v != "" {
		n, err := strconv.ParseUint(v, 10, 16)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid slippageBps", map[string]any{"slippageBps": "must be uint16"})
		}
		tmp := uint16(n)
		slippageBps = &tmp
	}

	swapMode := strings.TrimSpace(c.QueryParam("swapMode"))
	if swapMode != "" && swapMode != "ExactIn" && swapMode != "ExactOut" {
		return h.err(c, http.StatusBadRequest, "invalid swapMode", map[string]any{"swapMode": "must be ExactIn or ExactOut"})
	}

	var onlyDirectRoutes *bool
	if v := strings.TrimSpace(c.QueryParam("onlyDirectRoutes")); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return h.err(c, http.StatusBadRequest, "invalid onlyDirectRoutes", map[string]any{"onlyDirectRoutes": "must be boolean"})
		}
		onlyDirectRoutes = &b
	}

	ctx, cancel := h.withTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	quote, err := h.Jupiter.Quote(ctx, jupiter.QuoteRequest{
		InputMint:        inputMint,
		OutputMint:       outputMint,
		Amount:           amountStr,
		SlippageBps:      slippageBps,
		SwapMode:         swapMode,
		OnlyDirectRoutes: onlyDirectRoutes,
	})
	if err != nil {
		if errors.Is(err, jupiter.ErrInvalidSwapInput) {
			return h.err(c, http.StatusBadRequest, "invalid swap input", map[string]any{"err": err.Error()})
		}
		var httpErr *jupiter.HTTPError
		if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusBadRequest {
			return h.err(c, http.StatusBadGateway, "no route for pair", nil)
		}
		return h.err(c, http.StatusBadGateway, "quote fetch failed", map[string]any{"err": err.Error()})
	}

	return c.JSON(http.StatusOK, quote)
}
