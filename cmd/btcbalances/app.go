package main

import (
	"fmt"
	"log/slog"

	"github.com/mtlprog/btcbalances/internal/aggregator"
	"github.com/mtlprog/btcbalances/internal/balances"
	"github.com/mtlprog/btcbalances/internal/config"
	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/explorer"
	"github.com/mtlprog/btcbalances/internal/price"
	"github.com/mtlprog/btcbalances/internal/refresh"
	"github.com/mtlprog/btcbalances/internal/store"
)

// app holds the wired in-process components shared by every command.
type app struct {
	cfg       config.Config
	accounts  *store.AccountStore
	balances  *store.BalanceStore
	loading   *store.SectionTracker
	registry  *aggregator.Registry
	agg       *aggregator.Aggregator
	refresher *refresh.Service
}

func newApp(cfg config.Config) (*app, error) {
	policy, err := balances.ParseMissingBalancePolicy(cfg.MissingBalancePolicy)
	if err != nil {
		return nil, fmt.Errorf("reading missing balance policy: %w", err)
	}

	tracked, err := config.LoadAccounts(cfg.AccountsFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:      cfg,
		accounts: store.NewAccountStore(),
		balances: store.NewBalanceStore(),
		loading:  store.NewSectionTracker(),
		registry: aggregator.NewRegistry(),
	}
	a.setAccounts(tracked)

	a.agg = aggregator.New(a.accounts, a.balances, a.loading, aggregator.WithMissingBalancePolicy(policy))
	if err := a.agg.Register(a.registry); err != nil {
		return nil, fmt.Errorf("registering aggregator: %w", err)
	}

	coingecko := price.NewCoinGeckoClient(cfg.CoinGeckoURL, 0, cfg.CoinGeckoRetryMax)
	prices := price.NewService(coingecko, cfg.PriceCacheTTL)

	explorers := make(map[domain.Blockchain]refresh.BalanceFetcher)
	for chain, url := range map[domain.Blockchain]string{
		domain.BlockchainBTC: cfg.BTCExplorerURL,
		domain.BlockchainBCH: cfg.BCHExplorerURL,
	} {
		if url == "" {
			slog.Warn("no explorer configured, chain will not be refreshed", "chain", chain)
			continue
		}
		explorers[chain] = explorer.NewClient(url, cfg.ExplorerRetryMax, cfg.ExplorerRetryDelay, cfg.ExplorerRateInterval)
	}

	a.refresher = refresh.NewService(a.accounts, a.balances, a.loading, prices, explorers)
	return a, nil
}

// reloadAccounts re-reads the accounts file. The current lists stay in place
// when the file cannot be loaded.
func (a *app) reloadAccounts() error {
	tracked, err := config.LoadAccounts(a.cfg.AccountsFile)
	if err != nil {
		return fmt.Errorf("reloading accounts: %w", err)
	}
	a.setAccounts(tracked)
	return nil
}

func (a *app) setAccounts(tracked map[domain.Blockchain][]domain.Account) {
	for _, chain := range domain.Chains() {
		a.accounts.Set(chain, tracked[chain])
		slog.Info("accounts loaded", "chain", chain, "count", len(tracked[chain]))
	}
}

func (a *app) Close() {
	a.agg.Close()
}
