package domain

import (
	"maps"

	"github.com/shopspring/decimal"
)

// Balance is an amount held on one account together with its USD value.
type Balance struct {
	Amount   decimal.Decimal `json:"amount"`
	USDValue decimal.Decimal `json:"usdValue"`
}

// ZeroBalance returns a balance with zero amount and value.
func ZeroBalance() Balance {
	return Balance{Amount: decimal.Zero, USDValue: decimal.Zero}
}

// Add returns the component-wise sum of two balances.
func (b Balance) Add(o Balance) Balance {
	return Balance{
		Amount:   b.Amount.Add(o.Amount),
		USDValue: b.USDValue.Add(o.USDValue),
	}
}

// XpubBalances holds per-address balances derived from one xpub.
type XpubBalances struct {
	Xpub           string             `json:"xpub"`
	DerivationPath string             `json:"derivationPath,omitempty"`
	Addresses      map[string]Balance `json:"addresses"`
}

// ChainBalances is the raw balance state of one network.
type ChainBalances struct {
	Standalone map[string]Balance `json:"standalone"`
	Xpubs      []XpubBalances     `json:"xpubs"`
}

// XpubBalancesFor returns the balance group for the given xpub, if present.
func (c ChainBalances) XpubBalancesFor(xpub string) (XpubBalances, bool) {
	for _, x := range c.Xpubs {
		if x.Xpub == xpub {
			return x, true
		}
	}
	return XpubBalances{}, false
}

// Clone returns a deep copy of the balance state.
func (c ChainBalances) Clone() ChainBalances {
	out := ChainBalances{Standalone: maps.Clone(c.Standalone)}
	if c.Xpubs != nil {
		out.Xpubs = make([]XpubBalances, len(c.Xpubs))
		for i, x := range c.Xpubs {
			x.Addresses = maps.Clone(x.Addresses)
			out.Xpubs[i] = x
		}
	}
	return out
}

// AccountWithBalance is an account annotated with its matched balance.
// For xpub accounts Balance is the sum over Derived.
type AccountWithBalance struct {
	Chain          Blockchain           `json:"chain"`
	Address        string               `json:"address"`
	Label          string               `json:"label,omitempty"`
	Tags           []string             `json:"tags,omitempty"`
	Xpub           string               `json:"xpub,omitempty"`
	DerivationPath string               `json:"derivationPath,omitempty"`
	Balance        Balance              `json:"balance"`
	Derived        []AccountWithBalance `json:"derived,omitempty"`
}

// BlockchainTotal is the summary row of one network.
type BlockchainTotal struct {
	Chain    Blockchain        `json:"chain"`
	Children []BlockchainTotal `json:"children"`
	USDValue decimal.Decimal   `json:"usdValue"`
	Loading  bool              `json:"loading"`
}

// AssetBreakdown attributes part of an asset's holdings to one address.
type AssetBreakdown struct {
	Address  string     `json:"address"`
	Location Blockchain `json:"location"`
	Balance  Balance    `json:"balance"`
	Tags     []string   `json:"tags,omitempty"`
}
