package store

import (
	"sync"

	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/reactive"
)

// BalanceStore holds the raw balance state of each network, keyed by chain symbol.
type BalanceStore struct {
	reactive.Notifier

	mu       sync.RWMutex
	balances map[domain.Blockchain]domain.ChainBalances
}

// NewBalanceStore creates an empty BalanceStore.
func NewBalanceStore() *BalanceStore {
	return &BalanceStore{balances: make(map[domain.Blockchain]domain.ChainBalances)}
}

// Get returns a copy of chain's balances. An unknown chain yields empty balances.
func (s *BalanceStore) Get(chain domain.Blockchain) domain.ChainBalances {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.balances[chain].Clone()
}

// Set replaces chain's balances.
func (s *BalanceStore) Set(chain domain.Blockchain, balances domain.ChainBalances) {
	s.mu.Lock()
	s.balances[chain] = balances.Clone()
	s.mu.Unlock()
	s.Notify()
}

// Clear drops the balances of chain.
func (s *BalanceStore) Clear(chain domain.Blockchain) {
	s.mu.Lock()
	delete(s.balances, chain)
	s.mu.Unlock()
	s.Notify()
}
