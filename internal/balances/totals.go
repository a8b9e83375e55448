package balances

import (
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// Sum adds up the USD value of the annotated rows. Derived rows are not
// visited, their value is already in the owning xpub row.
func Sum(rows []domain.AccountWithBalance) decimal.Decimal {
	return lo.Reduce(rows, func(acc decimal.Decimal, row domain.AccountWithBalance, _ int) decimal.Decimal {
		return acc.Add(row.Balance.USDValue)
	}, decimal.Zero)
}

// SumAmount adds up the coin amount of the annotated rows.
func SumAmount(rows []domain.AccountWithBalance) decimal.Decimal {
	return lo.Reduce(rows, func(acc decimal.Decimal, row domain.AccountWithBalance, _ int) decimal.Decimal {
		return acc.Add(row.Balance.Amount)
	}, decimal.Zero)
}
