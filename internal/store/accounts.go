package store

import (
	"fmt"
	"sync"

	"github.com/samber/lo"

	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/reactive"
)

// AccountStore holds the ordered account list of each network.
type AccountStore struct {
	reactive.Notifier

	mu       sync.RWMutex
	accounts map[domain.Blockchain][]domain.Account
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[domain.Blockchain][]domain.Account)}
}

// Accounts returns a copy of the account list for chain, in insertion order.
func (s *AccountStore) Accounts(chain domain.Blockchain) []domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAccounts(s.accounts[chain])
}

// Set replaces the account list for chain.
func (s *AccountStore) Set(chain domain.Blockchain, accounts []domain.Account) {
	s.mu.Lock()
	s.accounts[chain] = cloneAccounts(accounts)
	s.mu.Unlock()
	s.Notify()
}

// Add appends an account to chain's list. Accounts are unique per key within a chain.
func (s *AccountStore) Add(chain domain.Blockchain, account domain.Account) error {
	s.mu.Lock()
	if _, exists := domain.AccountByKey(s.accounts[chain], account.Key()); exists {
		s.mu.Unlock()
		return fmt.Errorf("account %s already tracked on %s", account.Key(), chain)
	}
	s.accounts[chain] = append(s.accounts[chain], account.Clone())
	s.mu.Unlock()
	s.Notify()
	return nil
}

// Remove deletes the account with the given address or xpub from chain's list.
// It reports whether an account was removed.
func (s *AccountStore) Remove(chain domain.Blockchain, key string) bool {
	s.mu.Lock()
	before := len(s.accounts[chain])
	s.accounts[chain] = lo.Reject(s.accounts[chain], func(a domain.Account, _ int) bool {
		return a.Key() == key
	})
	removed := len(s.accounts[chain]) != before
	s.mu.Unlock()

	if removed {
		s.Notify()
	}
	return removed
}

func cloneAccounts(accounts []domain.Account) []domain.Account {
	if accounts == nil {
		return nil
	}
	return lo.Map(accounts, func(a domain.Account, _ int) domain.Account {
		return a.Clone()
	})
}
