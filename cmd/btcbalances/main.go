package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/btcbalances/internal/config"
	"github.com/mtlprog/btcbalances/internal/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		slog.Error("btcbalances failed", "error", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	var flush func()

	return &cli.App{
		Name:  "btcbalances",
		Usage: "track BTC and BCH account balances",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "log-level", Usage: "debug, info, warn or error (overrides LOG_LEVEL)"},
			&cli.StringFlag{Name: "accounts", Aliases: []string{"a"}, Usage: "accounts YAML file (overrides ACCOUNTS_FILE)"},
			&cli.StringFlag{Name: "missing-balance", Usage: "zero-fill or omit (overrides MISSING_BALANCE_POLICY)"},
		},
		Before: func(c *cli.Context) error {
			cfg := loadConfig(c)
			flush = logging.Setup(cfg.LogLevel)
			return nil
		},
		After: func(c *cli.Context) error {
			if flush != nil {
				flush()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API with periodic refresh and daily snapshots",
				Action: runServe,
			},
			{
				Name:   "totals",
				Usage:  "refresh once and print the per-chain totals",
				Action: runTotals,
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print totals and annotated accounts as JSON"},
				},
			},
			{
				Name:   "export",
				Usage:  "refresh once and write the balances to a workbook",
				Action: runExport,
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Aliases: []string{"o"}, Value: "balances.xlsx", Usage: "output .xlsx path"},
					&cli.BoolFlag{Name: "sheets", Usage: "write to the Google spreadsheet in SHEETS_SPREADSHEET_ID instead of a file"},
				},
			},
		},
	}
}

// loadConfig reads the environment and applies global flag overrides.
func loadConfig(c *cli.Context) config.Config {
	cfg := config.Load()
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v := c.String("accounts"); v != "" {
		cfg.AccountsFile = v
	}
	if v := c.String("missing-balance"); v != "" {
		cfg.MissingBalancePolicy = v
	}
	return cfg
}

func exitf(format string, args ...any) error {
	return cli.Exit(fmt.Sprintf(format, args...), 1)
}
