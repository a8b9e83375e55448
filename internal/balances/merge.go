// Package balances holds the pure functions that combine account lists with
// raw balance state: annotation, summation and per-asset breakdown.
package balances

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// MissingBalancePolicy decides what happens to an account that has no balance entry.
type MissingBalancePolicy string

const (
	// ZeroFill keeps the account and gives it a zero balance.
	ZeroFill MissingBalancePolicy = "zero-fill"
	// Omit drops the account from the annotated list.
	Omit MissingBalancePolicy = "omit"
)

// ParseMissingBalancePolicy validates a policy name. Empty selects ZeroFill.
func ParseMissingBalancePolicy(s string) (MissingBalancePolicy, error) {
	switch MissingBalancePolicy(s) {
	case "", ZeroFill:
		return ZeroFill, nil
	case Omit:
		return Omit, nil
	default:
		return "", fmt.Errorf("unknown missing balance policy %q", s)
	}
}

// AccountsWithBalances annotates each account with its balance on chain, preserving account order.
// Xpub accounts get one derived row per address and the sum of those rows as their own balance.
func AccountsWithBalances(accounts []domain.Account, balances domain.ChainBalances, chain domain.Blockchain, policy MissingBalancePolicy) []domain.AccountWithBalance {
	return lo.FilterMap(accounts, func(a domain.Account, _ int) (domain.AccountWithBalance, bool) {
		if a.IsXpub() {
			return xpubWithBalance(a, balances, chain, policy)
		}

		balance, ok := balances.Standalone[a.Address]
		if !ok {
			if policy == Omit {
				return domain.AccountWithBalance{}, false
			}
			balance = domain.ZeroBalance()
		}

		return domain.AccountWithBalance{
			Chain:   chain,
			Address: a.Address,
			Label:   a.Label,
			Tags:    slices.Clone(a.Tags),
			Balance: balance,
		}, true
	})
}

func xpubWithBalance(a domain.Account, balances domain.ChainBalances, chain domain.Blockchain, policy MissingBalancePolicy) (domain.AccountWithBalance, bool) {
	group, ok := balances.XpubBalancesFor(a.Xpub.Xpub)
	if !ok && policy == Omit {
		return domain.AccountWithBalance{}, false
	}

	addresses := orderAddresses(lo.Keys(group.Addresses), a.Xpub.Addresses)
	derived := lo.FilterMap(addresses, func(addr string, _ int) (domain.AccountWithBalance, bool) {
		balance, ok := group.Addresses[addr]
		if !ok {
			if policy == Omit {
				return domain.AccountWithBalance{}, false
			}
			balance = domain.ZeroBalance()
		}
		return domain.AccountWithBalance{
			Chain:          chain,
			Address:        addr,
			Label:          a.Label,
			Tags:           slices.Clone(a.Tags),
			Xpub:           a.Xpub.Xpub,
			DerivationPath: a.Xpub.DerivationPath,
			Balance:        balance,
		}, true
	})

	total := lo.Reduce(derived, func(acc domain.Balance, row domain.AccountWithBalance, _ int) domain.Balance {
		return acc.Add(row.Balance)
	}, domain.ZeroBalance())

	return domain.AccountWithBalance{
		Chain:          chain,
		Label:          a.Label,
		Tags:           slices.Clone(a.Tags),
		Xpub:           a.Xpub.Xpub,
		DerivationPath: a.Xpub.DerivationPath,
		Balance:        total,
		Derived:        derived,
	}, true
}

// orderAddresses returns the union of known and preferred: preferred first in
// its own order, then the remaining known addresses sorted.
func orderAddresses(known, preferred []string) []string {
	preferred = lo.Uniq(preferred)
	rest := lo.Without(lo.Uniq(known), preferred...)
	slices.Sort(rest)
	return append(preferred, rest...)
}
