package price

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// Fetcher fetches USD prices for all supported chains in one call.
type Fetcher interface {
	FetchPrices(ctx context.Context) (map[domain.Blockchain]decimal.Decimal, error)
}

// Service serves USD prices per chain from a TTL cache, refilling it from the Fetcher.
type Service struct {
	fetcher Fetcher
	cache   *cache.Cache
}

// NewService creates a price service whose entries expire after ttl.
func NewService(fetcher Fetcher, ttl time.Duration) *Service {
	if fetcher == nil {
		panic("price.NewService: fetcher must not be nil")
	}
	return &Service{
		fetcher: fetcher,
		cache:   cache.New(ttl, 2*ttl),
	}
}

// USDPrice returns the USD price of one coin on chain.
func (s *Service) USDPrice(ctx context.Context, chain domain.Blockchain) (decimal.Decimal, error) {
	if v, ok := s.cache.Get(string(chain)); ok {
		return v.(decimal.Decimal), nil
	}

	prices, err := s.fetcher.FetchPrices(ctx)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fetching prices: %w", err)
	}

	// every chain in the response is cached, so the other chain's refresh hits the cache
	for ch, p := range prices {
		s.cache.SetDefault(string(ch), p)
	}
	slog.Debug("price cache refilled", "chains", len(prices))

	p, ok := prices[chain]
	if !ok {
		return decimal.Zero, fmt.Errorf("no USD price for %s", chain)
	}
	return p, nil
}

// Invalidate drops all cached prices.
func (s *Service) Invalidate() {
	s.cache.Flush()
}
