package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dextract-fi/swap-gateway/internal/cache"
	"github.com/dextract-fi/swap-gateway/internal/constants"
	"github.com/dextract-fi/swap-gateway/internal/jupiter"
	"github.com/dextract-fi/swap-gateway/internal/rpc"
	"github.com/dextract-fi/swap-gateway/internal/tokendir"
)

type stubTokenAPI struct{}

func (stubTokenAPI) Tokens(ctx context.Context) ([]jupiter.TokenListEntry, error) {
	return []jupiter.TokenListEntry{
		{Address: constants.WrappedSOLMint, Symbol: "SOL", Name: "Solana", Decimals: 9},
	}, nil
}

func (stubTokenAPI) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	return map[string]float64{constants.WrappedSOLMint: 150.0}, nil
}

type stubChainAPI struct{}

func (stubChainAPI) GetBalance(ctx context.Context, address string) (uint64, error) {
	return 1_000_000_000, nil
}

func (stubChainAPI) GetTokenAccountsByOwner(ctx context.Context, owner string, programID string) ([]rpc.TokenAccount, error) {
	return nil, nil
}

func newTestHandlers() *Handlers {
	return &Handlers{
		Directory: tokendir.NewDirectory(stubTokenAPI{}, stubChainAPI{}, cache.NewMemoryStore(), nil),
	}
}

func doRequest(h echo.HandlerFunc, req *http.Request, pathParams map[string]string) *httptest.ResponseRecorder {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range pathParams {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}
	_ = h(c)
	return rec
}

func TestHealth(t *testing.T) {
	h := newTestHandlers()
	rec := doRequest(h.Health, httptest.NewRequest(http.MethodGet, "/v1/health", nil), nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok": true}`, rec.Body.String())
}

func TestTokens_ReturnsDirectory(t *testing.T) {
	h := newTestHandlers()
	rec := doRequest(h.Tokens, httptest.NewRequest(http.MethodGet, "/v1/tokens", nil), nil)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp TokensResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, len(resp.Items), resp.Count)
	assert.NotEmpty(t, resp.Items)
}

func TestTokens_RejectsBadRefreshParam(t *testing.T) {
	h := newTestHandlers()
	rec := doRequest(h.Tokens, httptest.NewRequest(http.MethodGet, "/v1/tokens?refresh=banana", nil), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBalances_InvalidWalletReturnsEmptyMap(t *testing.T) {
	h := newTestHandlers()
	rec := doRequest(h.Balances, httptest.NewRequest(http.MethodGet, "/v1/balances/bad", nil),
		map[string]string{"wallet": "not-a-wallet-0OIl"})

	require.Equal(t, http.StatusOK, rec.Code)

	var resp BalancesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Empty(t, resp.Balances)
}

func TestQuote_MissingParams(t *testing.T) {
	h := newTestHandlers()
	h.Jupiter = jupiter.NewClient("http://127.0.0.1:1", "", "", "")

	rec := doRequest(h.Quote, httptest.NewRequest(http.MethodGet, "/v1/quote?outputMint=B&amount=100", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(h.Quote, httptest.NewRequest(http.MethodGet, "/v1/quote?inputMint=A&outputMint=B&amount=1.5", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "fractional amounts are rejected before the upstream call")
}

func TestQuote_ProxiesUpstream(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"inputMint":"A","outputMint":"B","inAmount":"100","outAmount":"42","priceImpactPct":"0","slippageBps":50,"routePlan":[]}`))
	}))
	defer upstream.Close()

	h := newTestHandlers()
	h.Jupiter = jupiter.NewClient(upstream.URL, "", "", "")

	rec := doRequest(h.Quote, httptest.NewRequest(http.MethodGet, "/v1/quote?inputMint=A&outputMint=B&amount=100", nil), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var quote jupiter.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "42", quote.OutAmount)
}
