// Package refresh fills the balance store from the explorer and price sources.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/store"
)

// ErrNoExplorer is returned when no explorer is configured for a chain.
var ErrNoExplorer = errors.New("no explorer configured")

// BalanceFetcher fetches on-chain balances, in coins, for a set of addresses.
type BalanceFetcher interface {
	FetchBalances(ctx context.Context, addresses []string) (map[string]decimal.Decimal, error)
}

// PriceSource provides the USD price of one coin. Invalidate drops any
// cached prices so the next lookup goes upstream.
type PriceSource interface {
	USDPrice(ctx context.Context, chain domain.Blockchain) (decimal.Decimal, error)
	Invalidate()
}

// Service refreshes per-chain balances and keeps the section status in step.
type Service struct {
	accounts  *store.AccountStore
	balances  *store.BalanceStore
	loading   *store.SectionTracker
	prices    PriceSource
	explorers map[domain.Blockchain]BalanceFetcher

	// one in-flight refresh per chain
	chainMu map[domain.Blockchain]*sync.Mutex

	mu      sync.Mutex
	settled map[domain.Blockchain]bool
}

// NewService creates a refresh service. Chains without an entry in explorers are skipped by RefreshAll.
func NewService(
	accounts *store.AccountStore,
	balances *store.BalanceStore,
	loading *store.SectionTracker,
	prices PriceSource,
	explorers map[domain.Blockchain]BalanceFetcher,
) *Service {
	if accounts == nil || balances == nil || loading == nil {
		panic("refresh.NewService: stores must not be nil")
	}
	if prices == nil {
		panic("refresh.NewService: price source must not be nil")
	}
	chainMu := make(map[domain.Blockchain]*sync.Mutex, len(explorers))
	for chain := range explorers {
		chainMu[chain] = &sync.Mutex{}
	}
	return &Service{
		accounts:  accounts,
		balances:  balances,
		loading:   loading,
		prices:    prices,
		explorers: explorers,
		chainMu:   chainMu,
		settled:   make(map[domain.Blockchain]bool, len(explorers)),
	}
}

// Refresh fetches the balances of every tracked address on chain and stores them.
// The section is marked loading (or refreshing, when data is already shown) for the
// duration of the fetch and returns to its previous status on failure.
// Calls for the same chain run one at a time.
func (s *Service) Refresh(ctx context.Context, chain domain.Blockchain) error {
	fetcher, ok := s.explorers[chain]
	if !ok || fetcher == nil {
		return fmt.Errorf("refreshing %s: %w", chain, ErrNoExplorer)
	}

	mu := s.chainMu[chain]
	mu.Lock()
	defer mu.Unlock()
	defer s.markSettled(chain)

	section := chain.Section()
	prev := s.loading.Status(section)
	next := store.StatusLoading
	if prev == store.StatusLoaded {
		next = store.StatusRefreshing
	}
	s.loading.SetStatus(section, next)

	accounts := s.accounts.Accounts(chain)
	cb, err := s.fetch(ctx, chain, fetcher, accounts)
	if err != nil {
		s.loading.SetStatus(section, prev)
		return fmt.Errorf("refreshing %s: %w", chain, err)
	}

	s.balances.Set(chain, cb)
	s.loading.SetStatus(section, store.StatusLoaded)

	slog.Info("balances refreshed", "chain", chain, "accounts", len(accounts), "addresses", countAddresses(cb))
	return nil
}

// InvalidatePrices drops cached prices so the next refresh fetches fresh quotes.
func (s *Service) InvalidatePrices() {
	s.prices.Invalidate()
}

// Ready reports whether every configured chain has finished at least one
// refresh attempt and none is currently in flight.
func (s *Service) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for chain, fetcher := range s.explorers {
		if fetcher == nil {
			continue
		}
		if !s.settled[chain] || s.loading.IsLoading(chain.Section()) {
			return false
		}
	}
	return true
}

func (s *Service) markSettled(chain domain.Blockchain) {
	s.mu.Lock()
	s.settled[chain] = true
	s.mu.Unlock()
}

// RefreshAll refreshes every chain with a configured explorer concurrently.
// A failing chain does not interrupt the other; the first error is returned.
func (s *Service) RefreshAll(ctx context.Context) error {
	var g errgroup.Group
	for _, chain := range domain.Chains() {
		if _, ok := s.explorers[chain]; !ok {
			slog.Debug("skipping chain without explorer", "chain", chain)
			continue
		}
		g.Go(func() error {
			return s.Refresh(ctx, chain)
		})
	}
	return g.Wait()
}

func (s *Service) fetch(ctx context.Context, chain domain.Blockchain, fetcher BalanceFetcher, accounts []domain.Account) (domain.ChainBalances, error) {
	addresses := domain.TrackedAddresses(accounts)
	if len(addresses) == 0 {
		return domain.ChainBalances{Standalone: map[string]domain.Balance{}}, nil
	}

	amounts, err := fetcher.FetchBalances(ctx, addresses)
	if err != nil {
		return domain.ChainBalances{}, fmt.Errorf("fetching balances: %w", err)
	}

	usd, err := s.prices.USDPrice(ctx, chain)
	if err != nil {
		return domain.ChainBalances{}, fmt.Errorf("fetching %s price: %w", chain, err)
	}

	return buildChainBalances(accounts, amounts, usd), nil
}

// buildChainBalances groups fetched amounts into standalone and per-xpub maps.
// Addresses absent from amounts are left out.
func buildChainBalances(accounts []domain.Account, amounts map[string]decimal.Decimal, usdPrice decimal.Decimal) domain.ChainBalances {
	priced := func(addrs []string) map[string]domain.Balance {
		out := make(map[string]domain.Balance, len(addrs))
		for _, addr := range addrs {
			if amount, ok := amounts[addr]; ok {
				out[addr] = domain.ValueOf(amount, usdPrice)
			}
		}
		return out
	}

	standalone := lo.Map(domain.StandaloneAccounts(accounts), func(a domain.Account, _ int) string {
		return a.Address
	})

	return domain.ChainBalances{
		Standalone: priced(standalone),
		Xpubs: lo.Map(domain.XpubAccounts(accounts), func(a domain.Account, _ int) domain.XpubBalances {
			return domain.XpubBalances{
				Xpub:           a.Xpub.Xpub,
				DerivationPath: a.Xpub.DerivationPath,
				Addresses:      priced(a.Xpub.Addresses),
			}
		}),
	}
}

func countAddresses(cb domain.ChainBalances) int {
	return len(cb.Standalone) + lo.SumBy(cb.Xpubs, func(x domain.XpubBalances) int {
		return len(x.Addresses)
	})
}
