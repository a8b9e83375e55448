package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/btcbalances/internal/balances"
	"github.com/mtlprog/btcbalances/internal/domain"
)

func runTotals(c *cli.Context) error {
	a, err := newApp(loadConfig(c))
	if err != nil {
		return exitf("Failed to initialise: %v", err)
	}
	defer a.Close()

	if err := a.refresher.RefreshAll(c.Context); err != nil {
		slog.Warn("refresh incomplete, printing what was fetched", "error", err)
	}

	if c.Bool("json") {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(map[string]any{
			"totals": a.agg.Totals(),
			"btc":    a.agg.BTCAccounts(),
			"bch":    a.agg.BCHAccounts(),
		})
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CHAIN\tACCOUNTS\tAMOUNT\tUSD VALUE\tLOADING")
	for _, t := range a.agg.Totals() {
		rows := a.agg.AccountsFor(t.Chain)
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%t\n",
			t.Chain, len(rows), domain.FormatCoin(balances.SumAmount(rows)), t.USDValue.StringFixed(2), t.Loading)
	}
	return tw.Flush()
}
