// Package aggregator derives the per-account, per-network and per-asset
// balance views of the Bitcoin-family chains from the upstream stores.
package aggregator

import (
	"sync"

	"github.com/mtlprog/btcbalances/internal/balances"
	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/reactive"
)

// StoreID is the identity the aggregator is registered under.
const StoreID = "blockchain/accountbalances/btc"

// AccountSource provides the ordered account lists per chain.
type AccountSource interface {
	reactive.Versioned
	Accounts(chain domain.Blockchain) []domain.Account
	Subscribe(fn func()) (unsubscribe func())
}

// BalanceSource provides raw balances keyed by chain.
type BalanceSource interface {
	reactive.Versioned
	Get(chain domain.Blockchain) domain.ChainBalances
	Subscribe(fn func()) (unsubscribe func())
}

// LoadingSource reports per-section loading state.
type LoadingSource interface {
	reactive.Versioned
	ShouldShowLoadingScreen(section domain.Section) bool
	Subscribe(fn func()) (unsubscribe func())
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithMissingBalancePolicy sets how accounts without a balance entry are annotated.
func WithMissingBalancePolicy(p balances.MissingBalancePolicy) Option {
	return func(a *Aggregator) {
		a.policy = p
	}
}

// Aggregator exposes the derived balance views. Views are recomputed lazily on
// read after an upstream change; results must be treated as read-only.
type Aggregator struct {
	accounts AccountSource
	balances BalanceSource
	loading  LoadingSource
	policy   balances.MissingBalancePolicy

	notifier  reactive.Notifier
	closeOnce sync.Once
	unsubs    []func()

	btcAccounts *reactive.Computed[[]domain.AccountWithBalance]
	bchAccounts *reactive.Computed[[]domain.AccountWithBalance]
	totals      *reactive.Computed[[]domain.BlockchainTotal]
}

// New creates an Aggregator over the given stores. All sources are required.
func New(accounts AccountSource, bals BalanceSource, loading LoadingSource, opts ...Option) *Aggregator {
	if accounts == nil {
		panic("aggregator.New: accounts is nil")
	}
	if bals == nil {
		panic("aggregator.New: balances is nil")
	}
	if loading == nil {
		panic("aggregator.New: loading is nil")
	}

	a := &Aggregator{
		accounts: accounts,
		balances: bals,
		loading:  loading,
		policy:   balances.ZeroFill,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.btcAccounts = reactive.NewComputed(func() []domain.AccountWithBalance {
		return a.annotate(domain.BlockchainBTC)
	}, accounts, bals)
	a.bchAccounts = reactive.NewComputed(func() []domain.AccountWithBalance {
		return a.annotate(domain.BlockchainBCH)
	}, accounts, bals)
	a.totals = reactive.NewComputed(a.computeTotals, accounts, bals, loading)

	a.unsubs = []func(){
		accounts.Subscribe(a.notifier.Notify),
		bals.Subscribe(a.notifier.Notify),
		loading.Subscribe(a.notifier.Notify),
	}

	return a
}

// BTCAccounts returns the BTC accounts annotated with their balances, in account-list order.
func (a *Aggregator) BTCAccounts() []domain.AccountWithBalance {
	return a.btcAccounts.Get()
}

// BCHAccounts returns the BCH accounts annotated with their balances, in account-list order.
func (a *Aggregator) BCHAccounts() []domain.AccountWithBalance {
	return a.bchAccounts.Get()
}

// AccountsFor returns the annotated accounts of chain. Chains the aggregator
// does not track yield an empty list.
func (a *Aggregator) AccountsFor(chain domain.Blockchain) []domain.AccountWithBalance {
	switch chain {
	case domain.BlockchainBTC:
		return a.BTCAccounts()
	case domain.BlockchainBCH:
		return a.BCHAccounts()
	default:
		return []domain.AccountWithBalance{}
	}
}

// Totals returns one summary row per network, always BTC first and BCH second.
func (a *Aggregator) Totals() []domain.BlockchainTotal {
	return a.totals.Get()
}

// Breakdown returns the per-address holdings of asset. Only "BTC" and "BCH"
// have holdings here; any other asset yields an empty list.
func (a *Aggregator) Breakdown(asset string) []domain.AssetBreakdown {
	result := []domain.AssetBreakdown{}
	if asset == string(domain.BlockchainBTC) {
		result = append(result, a.breakdown(domain.BlockchainBTC)...)
	}
	if asset == string(domain.BlockchainBCH) {
		result = append(result, a.breakdown(domain.BlockchainBCH)...)
	}
	return result
}

// Subscribe registers fn to run whenever any upstream store changes.
func (a *Aggregator) Subscribe(fn func()) (unsubscribe func()) {
	return a.notifier.Subscribe(fn)
}

// Version changes whenever any upstream store changes.
func (a *Aggregator) Version() uint64 {
	return a.notifier.Version()
}

// Close detaches the aggregator from its upstream stores.
func (a *Aggregator) Close() {
	a.closeOnce.Do(func() {
		for _, unsub := range a.unsubs {
			unsub()
		}
	})
}

func (a *Aggregator) annotate(chain domain.Blockchain) []domain.AccountWithBalance {
	rows := balances.AccountsWithBalances(a.accounts.Accounts(chain), a.balances.Get(chain), chain, a.policy)
	if rows == nil {
		return []domain.AccountWithBalance{}
	}
	return rows
}

func (a *Aggregator) computeTotals() []domain.BlockchainTotal {
	return []domain.BlockchainTotal{
		a.total(domain.BlockchainBTC, a.BTCAccounts()),
		a.total(domain.BlockchainBCH, a.BCHAccounts()),
	}
}

func (a *Aggregator) total(chain domain.Blockchain, rows []domain.AccountWithBalance) domain.BlockchainTotal {
	return domain.BlockchainTotal{
		Chain:    chain,
		Children: []domain.BlockchainTotal{},
		USDValue: balances.Sum(rows),
		Loading:  a.loading.ShouldShowLoadingScreen(chain.Section()),
	}
}

func (a *Aggregator) breakdown(chain domain.Blockchain) []domain.AssetBreakdown {
	return balances.Breakdown(chain, a.balances.Get(chain), a.accounts.Accounts(chain))
}
