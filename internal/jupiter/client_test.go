package jupiter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingTransport counts round trips so tests can assert that
// rejected inputs never reach the network.
type countingTransport struct {
	calls int
	inner http.RoundTripper
}

func (t *countingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.calls++
	return t.inner.RoundTrip(req)
}

func TestQuote_RejectsBadInputWithoutNetwork(t *testing.T) {
	ct := &countingTransport{inner: http.DefaultTransport}
	c := NewClient("http://127.0.0.1:1", "", "", "", WithHTTPClient(&http.Client{Transport: ct}))

	cases := []struct {
		name string
		req  QuoteRequest
	}{
		{"missing input mint", QuoteRequest{OutputMint: "B", Amount: "100"}},
		{"missing output mint", QuoteRequest{InputMint: "A", Amount: "100"}},
		{"same mint both sides", QuoteRequest{InputMint: "A", OutputMint: "A", Amount: "100"}},
		{"zero amount", QuoteRequest{InputMint: "A", OutputMint: "B", Amount: "0"}},
		{"empty amount", QuoteRequest{InputMint: "A", OutputMint: "B"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := c.Quote(context.Background(), tc.req)
			assert.ErrorIs(t, err, ErrInvalidSwapInput)
		})
	}
	assert.Equal(t, 0, ct.calls, "invalid input must not produce requests")
}

func TestQuote_DecodesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "So111", r.URL.Query().Get("inputMint"))
		assert.Equal(t, "50", r.URL.Query().Get("slippageBps"))
		w.Write([]byte(`{
			"inputMint": "So111",
			"outputMint": "EPjF",
			"inAmount": "1500000000",
			"outAmount": "225000000",
			"priceImpactPct": "0.01",
			"slippageBps": 50,
			"routePlan": [{"swapInfo": {"ammKey": "k", "inputMint": "So111", "outputMint": "EPjF", "inAmount": "1500000000", "outAmount": "225000000"}, "bps": 10000}]
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "")
	bps := uint16(50)
	quote, err := c.Quote(context.Background(), QuoteRequest{
		InputMint:   "So111",
		OutputMint:  "EPjF",
		Amount:      "1500000000",
		SlippageBps: &bps,
	})
	require.NoError(t, err)
	assert.Equal(t, "225000000", quote.OutAmount)
	assert.Len(t, quote.RoutePlan, 1)
}

func TestQuote_WrapsUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"No routes found"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "")
	_, err := c.Quote(context.Background(), QuoteRequest{InputMint: "A", OutputMint: "B", Amount: "100"})
	require.Error(t, err)

	var qErr *QuoteFetchError
	require.ErrorAs(t, err, &qErr)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
}

func TestSwapTransaction_RequiresQuoteAndKey(t *testing.T) {
	ct := &countingTransport{inner: http.DefaultTransport}
	c := NewClient("http://127.0.0.1:1", "", "", "", WithHTTPClient(&http.Client{Transport: ct}))

	_, err := c.SwapTransaction(context.Background(), SwapRequest{UserPublicKey: "wallet"})
	assert.ErrorIs(t, err, ErrInvalidSwapInput)

	_, err = c.SwapTransaction(context.Background(), SwapRequest{QuoteResponse: &QuoteResponse{}})
	assert.ErrorIs(t, err, ErrInvalidSwapInput)

	assert.Equal(t, 0, ct.calls)
}

func TestSwapTransaction_ReturnsUnsignedTx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/swap", r.URL.Path)
		w.Write([]byte(`{"swapTransaction": "AQAB3base64payload", "lastValidBlockHeight": 271828}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", "")
	resp, err := c.SwapTransaction(context.Background(), SwapRequest{
		QuoteResponse:    &QuoteResponse{InputMint: "A", OutputMint: "B"},
		UserPublicKey:    "wallet",
		WrapAndUnwrapSol: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "AQAB3base64payload", resp.SwapTransaction)
	assert.Equal(t, uint64(271828), resp.LastValidBlockHeight)
}

func TestPrices_RejectsOversizedBatch(t *testing.T) {
	c := NewClient("", "", "", "")
	mints := make([]string, 101)
	for i := range mints {
		mints[i] = "mint"
	}
	_, err := c.Prices(context.Background(), mints)
	assert.Error(t, err)
}

func TestPrices_NormalizesResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"So111": {"id": "So111", "price": 150.25}, "EPjF": {"id": "EPjF", "price": 1.0}}}`))
	}))
	defer srv.Close()

	c := NewClient("", "", srv.URL, "")
	prices, err := c.Prices(context.Background(), []string{"So111", "EPjF"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"So111": 150.25, "EPjF": 1.0}, prices)
}
