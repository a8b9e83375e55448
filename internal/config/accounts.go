package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// LoadAccounts reads the tracked accounts from a YAML file of the form
//
//	btc:
//	  - address: 1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa
//	    label: genesis
//	  - label: hardware
//	    xpub:
//	      xpub: xpub6C...
//	      derivationPath: m/0
//	      addresses: [1Bv..., 1Cx...]
//	bch:
//	  - address: qq...
func LoadAccounts(path string) (map[domain.Blockchain][]domain.Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading accounts file: %w", err)
	}
	return ParseAccounts(data)
}

// ParseAccounts decodes the accounts YAML document.
func ParseAccounts(data []byte) (map[domain.Blockchain][]domain.Account, error) {
	var raw map[string][]domain.Account
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing accounts YAML: %w", err)
	}

	result := make(map[domain.Blockchain][]domain.Account, len(raw))
	for key, accounts := range raw {
		chain, err := domain.ParseBlockchain(key)
		if err != nil {
			return nil, fmt.Errorf("accounts file: %w", err)
		}
		for i, a := range accounts {
			if err := a.Validate(); err != nil {
				return nil, fmt.Errorf("accounts file: %s entry %d: %w", chain, i, err)
			}
		}
		result[chain] = append(result[chain], accounts...)
	}
	return result, nil
}
