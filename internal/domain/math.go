package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// CoinPrecision is the number of decimal places of one BTC or BCH (satoshi granularity).
const CoinPrecision = 8

// SatoshisToCoin converts an integer satoshi amount into whole coins.
func SatoshisToCoin(sats int64) decimal.Decimal {
	return decimal.NewFromInt(sats).Shift(-CoinPrecision)
}

// ValueOf prices an amount, returning a balance with its USD value.
func ValueOf(amount, usdPrice decimal.Decimal) Balance {
	return Balance{Amount: amount, USDValue: amount.Mul(usdPrice)}
}

// FormatCoin rounds to satoshi precision and strips trailing zeros.
func FormatCoin(d decimal.Decimal) string {
	s := d.Round(CoinPrecision).StringFixed(CoinPrecision)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
