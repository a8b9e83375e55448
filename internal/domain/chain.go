package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Blockchain identifies one of the supported UTXO networks by its ticker symbol.
type Blockchain string

const (
	BlockchainBTC Blockchain = "BTC"
	BlockchainBCH Blockchain = "BCH"
)

// ErrUnknownChain is returned when a symbol does not name a supported network.
var ErrUnknownChain = errors.New("unknown chain")

// Chains returns the supported networks in display order.
func Chains() []Blockchain {
	return []Blockchain{BlockchainBTC, BlockchainBCH}
}

// ParseBlockchain resolves a case-insensitive ticker into a Blockchain.
func ParseBlockchain(s string) (Blockchain, error) {
	switch Blockchain(strings.ToUpper(strings.TrimSpace(s))) {
	case BlockchainBTC:
		return BlockchainBTC, nil
	case BlockchainBCH:
		return BlockchainBCH, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownChain, s)
	}
}

// Section names a loading area tracked for the presentation layer.
type Section string

const (
	SectionBlockchainBTC Section = "blockchain_btc"
	SectionBlockchainBCH Section = "blockchain_bch"
)

// Section returns the loading section that tracks balance fetching for the chain.
func (b Blockchain) Section() Section {
	switch b {
	case BlockchainBCH:
		return SectionBlockchainBCH
	default:
		return SectionBlockchainBTC
	}
}
