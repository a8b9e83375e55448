// Package price provides USD prices for the supported chains.
package price

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// coinIDs maps chains to CoinGecko coin IDs.
var coinIDs = map[domain.Blockchain]string{
	domain.BlockchainBTC: "bitcoin",
	domain.BlockchainBCH: "bitcoin-cash",
}

// CoinGeckoClient fetches USD prices from the CoinGecko API.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	delay      time.Duration
	maxRetries int
}

// NewCoinGeckoClient creates a new CoinGecko API client.
func NewCoinGeckoClient(baseURL string, delay time.Duration, maxRetries int) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		delay:      delay,
		maxRetries: maxRetries,
	}
}

// FetchPrices returns the USD price of every supported chain.
// Chains missing from the response are left out of the map.
func (c *CoinGeckoClient) FetchPrices(ctx context.Context) (map[domain.Blockchain]decimal.Decimal, error) {
	ids := lo.Map(domain.Chains(), func(ch domain.Blockchain, _ int) string { return coinIDs[ch] })
	url := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, strings.Join(ids, ","))

	body, err := c.fetchWithRetry(ctx, url)
	if err != nil {
		return nil, err
	}

	// {"bitcoin":{"usd":65000},"bitcoin-cash":{"usd":450}}
	var raw map[string]map[string]decimal.Decimal
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("parsing CoinGecko response: %w", err)
	}

	result := make(map[domain.Blockchain]decimal.Decimal, len(coinIDs))
	for chain, id := range coinIDs {
		usd, ok := raw[id]["usd"]
		if !ok {
			continue
		}
		result[chain] = usd
	}
	return result, nil
}

func (c *CoinGeckoClient) fetchWithRetry(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := range c.maxRetries + 1 {
		if attempt > 0 {
			baseDelay := c.delay
			if baseDelay == 0 {
				baseDelay = 10 * time.Second
			}
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, fmt.Errorf("creating CoinGecko request: %w", err)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, fmt.Errorf("CoinGecko request failed: %w", err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("reading CoinGecko response: %w", err)
		}

		switch resp.StatusCode {
		case http.StatusOK:
			return body, nil
		case http.StatusTooManyRequests:
			lastErr = fmt.Errorf("CoinGecko rate limited (attempt %d/%d)", attempt+1, c.maxRetries+1)
			continue
		}

		return nil, fmt.Errorf("CoinGecko HTTP %d: %s", resp.StatusCode, string(body))
	}

	return nil, lastErr
}
