package domain

import (
	"errors"
	"slices"

	"github.com/samber/lo"
)

// XpubPayload describes an extended public key and the addresses derived from it.
type XpubPayload struct {
	Xpub           string   `json:"xpub" yaml:"xpub"`
	DerivationPath string   `json:"derivationPath,omitempty" yaml:"derivationPath"`
	Addresses      []string `json:"addresses,omitempty" yaml:"addresses"`
}

// Account is a tracked address, or xpub, on one network.
type Account struct {
	Address string       `json:"address" yaml:"address"`
	Label   string       `json:"label,omitempty" yaml:"label"`
	Tags    []string     `json:"tags,omitempty" yaml:"tags"`
	Xpub    *XpubPayload `json:"xpub,omitempty" yaml:"xpub"`
}

// IsXpub reports whether the account is an extended public key rather than a single address.
func (a Account) IsXpub() bool {
	return a.Xpub != nil
}

// Validate checks that the account names something to track.
func (a Account) Validate() error {
	if a.Address == "" && !a.IsXpub() {
		return errors.New("neither address nor xpub set")
	}
	if a.IsXpub() && a.Xpub.Xpub == "" {
		return errors.New("empty xpub")
	}
	return nil
}

// Key returns the identifier the account is stored under: the xpub for xpub accounts, the address otherwise.
func (a Account) Key() string {
	if a.IsXpub() {
		return a.Xpub.Xpub
	}
	return a.Address
}

// Clone returns a deep copy so callers can't alias store-owned slices.
func (a Account) Clone() Account {
	c := a
	c.Tags = slices.Clone(a.Tags)
	if a.Xpub != nil {
		x := *a.Xpub
		x.Addresses = slices.Clone(a.Xpub.Addresses)
		c.Xpub = &x
	}
	return c
}

// StandaloneAccounts returns the accounts that are plain addresses.
func StandaloneAccounts(accounts []Account) []Account {
	return lo.Filter(accounts, func(a Account, _ int) bool {
		return !a.IsXpub()
	})
}

// XpubAccounts returns the accounts backed by an extended public key.
func XpubAccounts(accounts []Account) []Account {
	return lo.Filter(accounts, func(a Account, _ int) bool {
		return a.IsXpub()
	})
}

// TrackedAddresses returns every address whose balance must be fetched:
// standalone addresses followed by xpub-derived addresses, deduplicated.
func TrackedAddresses(accounts []Account) []string {
	addrs := lo.FlatMap(accounts, func(a Account, _ int) []string {
		if a.IsXpub() {
			return a.Xpub.Addresses
		}
		return []string{a.Address}
	})
	return lo.Uniq(lo.Compact(addrs))
}

// AccountByKey looks up an account by address or xpub.
// Returns the account and true if found, zero value and false otherwise.
func AccountByKey(accounts []Account, key string) (Account, bool) {
	return lo.Find(accounts, func(a Account) bool {
		return a.Key() == key
	})
}
