package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type Client struct {
	BaseURL  string
	TokenURL string
	PriceURL string
	APIKey   string
	HTTP     *http.Client
}

// ClientOption customizes a Client after defaults are applied.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying HTTP client. Tests use it to
// inject a recording transport.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.HTTP = h }
}

func NewClient(baseURL, tokenURL, priceURL, apiKey string, opts ...ClientOption) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "https://quote-api.jup.ag/v6"
	}
	if tokenURL = strings.TrimSpace(tokenURL); tokenURL == "" {
		tokenURL = "https://token.jup.ag/all"
	}
	if priceURL = strings.TrimSpace(priceURL); priceURL == "" {
		priceURL = "https://price.jup.ag/v4/price"
	}
	c := &Client{
		BaseURL:  baseURL,
		TokenURL: tokenURL,
		PriceURL: priceURL,
		APIKey:   strings.TrimSpace(apiKey),
		HTTP: &http.Client{
			Timeout: 12 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// validateSwapPair rejects malformed pairs before any network traffic.
func validateSwapPair(inputMint, outputMint, amount string) error {
	if strings.TrimSpace(inputMint) == "" {
		return fmt.Errorf("%w: inputMint is required", ErrInvalidSwapInput)
	}
	if strings.TrimSpace(outputMint) == "" {
		return fmt.Errorf("%w: outputMint is required", ErrInvalidSwapInput)
	}
	if inputMint == outputMint {
		return fmt.Errorf("%w: inputMint and outputMint must differ", ErrInvalidSwapInput)
	}
	if strings.TrimSpace(amount) == "" || amount == "0" {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidSwapInput)
	}
	return nil
}

// Quote fetches a swap quote. Input validation happens before the
// request goes out, so a bad pair never hits the API.
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*QuoteResponse, error) {
	if err := validateSwapPair(req.InputMint, req.OutputMint, req.Amount); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("inputMint", req.InputMint)
	q.Set("outputMint", req.OutputMint)
	q.Set("amount", req.Amount)

	if req.SlippageBps != nil {
		q.Set("slippageBps", fmt.Sprintf("%d", *req.SlippageBps))
	}
	if req.SwapMode != "" {
		q.Set("swapMode", req.SwapMode)
	}
	if len(req.Dexes) > 0 {
		q.Set("dexes", strings.Join(req.Dexes, ","))
	}
	if len(req.ExcludeDexes) > 0 {
		q.Set("excludeDexes", strings.Join(req.ExcludeDexes, ","))
	}
	if req.RestrictIntermediateTokens != nil {
		q.Set("restrictIntermediateTokens", fmt.Sprintf("%t", *req.RestrictIntermediateTokens))
	}
	if req.OnlyDirectRoutes != nil {
		q.Set("onlyDirectRoutes", fmt.Sprintf("%t", *req.OnlyDirectRoutes))
	}
	if req.AsLegacyTransaction != nil {
		q.Set("asLegacyTransaction", fmt.Sprintf("%t", *req.AsLegacyTransaction))
	}
	if req.PlatformFeeBps != nil {
		q.Set("platformFeeBps", fmt.Sprintf("%d", *req.PlatformFeeBps))
	}
	if req.MaxAccounts != nil {
		q.Set("maxAccounts", fmt.Sprintf("%d", *req.MaxAccounts))
	}

	body, err := c.doGet(ctx, c.BaseURL+"/quote?"+q.Encode())
	if err != nil {
		return nil, &QuoteFetchError{Err: err}
	}

	var out QuoteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &QuoteFetchError{Err: fmt.Errorf("failed to decode quote response: %w", err)}
	}
	return &out, nil
}

// SwapTransaction asks the API to serialize an unsigned transaction for
// a previously fetched quote.
func (c *Client) SwapTransaction(ctx context.Context, req SwapRequest) (*SwapResponse, error) {
	if req.QuoteResponse == nil {
		return nil, fmt.Errorf("%w: quote is required", ErrInvalidSwapInput)
	}
	if strings.TrimSpace(req.UserPublicKey) == "" {
		return nil, fmt.Errorf("%w: userPublicKey is required", ErrInvalidSwapInput)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &TransactionBuildError{Err: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/swap", bytes.NewReader(payload))
	if err != nil {
		return nil, &TransactionBuildError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, &TransactionBuildError{Err: err}
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &TransactionBuildError{Err: &HTTPError{StatusCode: res.StatusCode, Body: body}}
	}

	var out SwapResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &TransactionBuildError{Err: fmt.Errorf("failed to decode swap response: %w", err)}
	}
	if strings.TrimSpace(out.SwapTransaction) == "" {
		return nil, &TransactionBuildError{Err: fmt.Errorf("empty swapTransaction in response")}
	}
	return &out, nil
}

func (c *Client) doGet(ctx context.Context, u string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("accept", "application/json")
	if c.APIKey != "" {
		httpReq.Header.Set("x-api-key", c.APIKey)
	}

	res, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, _ := io.ReadAll(res.Body)
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: res.StatusCode, Body: body}
	}
	return body, nil
}
