package export

import (
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcbalances/internal/balances"
	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/snapshot"
)

// Sheet names.
const (
	SheetTotals  = "TOTALS"
	SheetHistory = "HISTORY"
)

// Sheet is one named table of cell values, header row first.
type Sheet struct {
	Name string
	Rows [][]any
}

// AccountsSheetName returns the sheet name used for chain's accounts.
func AccountsSheetName(chain domain.Blockchain) string {
	return string(chain) + "_ACCOUNTS"
}

// BuildWorkbook lays out a snapshot as the TOTALS sheet followed by one accounts sheet per chain.
func BuildWorkbook(data snapshot.Data) []Sheet {
	return []Sheet{
		{Name: SheetTotals, Rows: buildTotals(data.Totals)},
		{Name: AccountsSheetName(domain.BlockchainBTC), Rows: buildAccounts(data.BTC)},
		{Name: AccountsSheetName(domain.BlockchainBCH), Rows: buildAccounts(data.BCH)},
	}
}

// buildTotals builds the TOTALS sheet.
// Columns: Chain | USD Value | Loading, with a closing TOTAL row.
func buildTotals(totals []domain.BlockchainTotal) [][]any {
	data := make([][]any, 0, len(totals)+2)
	data = append(data, []any{"Chain", "USD Value", "Loading"})

	for _, t := range totals {
		data = append(data, []any{string(t.Chain), toFloat(t.USDValue), t.Loading})
	}

	sum := lo.Reduce(totals, func(acc decimal.Decimal, t domain.BlockchainTotal, _ int) decimal.Decimal {
		return acc.Add(t.USDValue)
	}, decimal.Zero)
	data = append(data, []any{"TOTAL", toFloat(sum), ""})

	return data
}

// buildAccounts builds a per-chain accounts sheet. Xpub rows are followed by their derived addresses.
// Columns: Address | Label | Tags | Xpub | Derivation Path | Amount | USD Value
func buildAccounts(rows []domain.AccountWithBalance) [][]any {
	data := [][]any{
		{"Address", "Label", "Tags", "Xpub", "Derivation Path", "Amount", "USD Value"},
	}

	for _, row := range rows {
		data = append(data, accountRow(row, row.Xpub))
		for _, child := range row.Derived {
			data = append(data, accountRow(child, row.Xpub))
		}
	}

	total := balances.Sum(rows)
	data = append(data, []any{"TOTAL", "", "", "", "", toFloat(balances.SumAmount(rows)), toFloat(total)})

	return data
}

func accountRow(row domain.AccountWithBalance, xpub string) []any {
	return []any{
		row.Address,
		row.Label,
		strings.Join(row.Tags, ", "),
		xpub,
		row.DerivationPath,
		toFloat(row.Balance.Amount),
		toFloat(row.Balance.USDValue),
	}
}

// historyHeader is the first row of the HISTORY sheet.
var historyHeader = []any{"Date", "BTC USD", "BCH USD", "Total USD"}

// buildHistoryRow builds one HISTORY row for the totals captured at the given time.
func buildHistoryRow(totals []domain.BlockchainTotal, at time.Time) []any {
	byChain := lo.KeyBy(totals, func(t domain.BlockchainTotal) domain.Blockchain { return t.Chain })

	sum := decimal.Zero
	row := []any{at.UTC().Format("02.01.2006")}
	for _, chain := range domain.Chains() {
		v := byChain[chain].USDValue
		sum = sum.Add(v)
		row = append(row, toFloat(v))
	}
	return append(row, toFloat(sum))
}

func toFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
