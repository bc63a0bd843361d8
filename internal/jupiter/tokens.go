package jupiter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// maxPriceBatch is the mint cap per price request enforced upstream.
const maxPriceBatch = 100

// Tokens fetches the full token directory.
func (c *Client) Tokens(ctx context.Context) ([]TokenListEntry, error) {
	body, err := c.doGet(ctx, c.TokenURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch token list: %w", err)
	}

	var out []TokenListEntry
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode token list: %w", err)
	}
	return out, nil
}

// Prices fetches USD prices for one batch of mints. The caller is
// responsible for splitting larger sets; batches over the upstream cap
// are rejected here.
func (c *Client) Prices(ctx context.Context, mints []string) (map[string]float64, error) {
	if len(mints) == 0 {
		return map[string]float64{}, nil
	}
	if len(mints) > maxPriceBatch {
		return nil, fmt.Errorf("price batch of %d exceeds cap of %d", len(mints), maxPriceBatch)
	}

	q := url.Values{}
	q.Set("ids", strings.Join(mints, ","))

	body, err := c.doGet(ctx, c.PriceURL+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch prices: %w", err)
	}

	var out priceResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("failed to decode price response: %w", err)
	}

	prices := make(map[string]float64, len(out.Data))
	for mint, d := range out.Data {
		prices[mint] = d.Price
	}
	return prices, nil
}
