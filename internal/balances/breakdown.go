package balances

import (
	"slices"

	"github.com/samber/lo"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// Breakdown lists every address holding a balance on chain: standalone
// addresses first, then xpub-derived ones. Tags come from the owning account.
func Breakdown(chain domain.Blockchain, balances domain.ChainBalances, accounts []domain.Account) []domain.AssetBreakdown {
	standaloneOrder := lo.Map(domain.StandaloneAccounts(accounts), func(a domain.Account, _ int) string {
		return a.Address
	})

	breakdown := lo.Map(orderAddresses(lo.Keys(balances.Standalone), standaloneOrder), func(addr string, _ int) domain.AssetBreakdown {
		return domain.AssetBreakdown{
			Address:  addr,
			Location: chain,
			Balance:  balances.Standalone[addr],
			Tags:     tagsOf(accounts, addr),
		}
	})
	// orderAddresses also returns tracked addresses that have no balance entry.
	breakdown = lo.Filter(breakdown, func(b domain.AssetBreakdown, _ int) bool {
		_, ok := balances.Standalone[b.Address]
		return ok
	})

	for _, group := range balances.Xpubs {
		var preferred []string
		if acc, ok := domain.AccountByKey(accounts, group.Xpub); ok && acc.IsXpub() {
			preferred = acc.Xpub.Addresses
		}
		tags := tagsOf(accounts, group.Xpub)
		for _, addr := range orderAddresses(lo.Keys(group.Addresses), preferred) {
			balance, ok := group.Addresses[addr]
			if !ok {
				continue
			}
			breakdown = append(breakdown, domain.AssetBreakdown{
				Address:  addr,
				Location: chain,
				Balance:  balance,
				Tags:     slices.Clone(tags),
			})
		}
	}

	return breakdown
}

func tagsOf(accounts []domain.Account, key string) []string {
	acc, ok := domain.AccountByKey(accounts, key)
	if !ok {
		return nil
	}
	return slices.Clone(acc.Tags)
}
