package explorer

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// maxAddressesPerRequest bounds the "active" parameter of one /balance call.
const maxAddressesPerRequest = 50

// addressBalance is one entry of the /balance response, amounts in satoshis.
type addressBalance struct {
	FinalBalance  int64 `json:"final_balance"`
	NTx           int64 `json:"n_tx"`
	TotalReceived int64 `json:"total_received"`
}

// FetchBalances returns the confirmed balance, in coins, of every address.
// Addresses the explorer omits from its response are reported as zero.
func (c *Client) FetchBalances(ctx context.Context, addresses []string) (map[string]decimal.Decimal, error) {
	result := make(map[string]decimal.Decimal, len(addresses))

	for _, batch := range lo.Chunk(lo.Uniq(addresses), maxAddressesPerRequest) {
		var resp map[string]addressBalance
		path := "/balance?active=" + url.QueryEscape(strings.Join(batch, "|"))
		if err := c.getJSON(ctx, path, &resp); err != nil {
			return nil, fmt.Errorf("fetching balances for %d addresses: %w", len(batch), err)
		}

		for _, addr := range batch {
			result[addr] = domain.SatoshisToCoin(resp[addr].FinalBalance)
		}
	}

	return result, nil
}
