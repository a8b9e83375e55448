package main

import (
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/btcbalances/internal/export"
	"github.com/mtlprog/btcbalances/internal/snapshot"
)

func runExport(c *cli.Context) error {
	ctx := c.Context
	cfg := loadConfig(c)

	a, err := newApp(cfg)
	if err != nil {
		return exitf("Failed to initialise: %v", err)
	}
	defer a.Close()

	var writer export.SheetWriter
	if c.Bool("sheets") {
		if cfg.SheetsSpreadsheetID == "" || cfg.GoogleCredentialsJSON == "" {
			return exitf("--sheets needs SHEETS_SPREADSHEET_ID and GOOGLE_CREDENTIALS_JSON")
		}
		sw, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
		if err != nil {
			return exitf("Failed to create sheets writer: %v", err)
		}
		writer = sw
	} else {
		writer = export.NewXLSXWriter(c.String("out"))
	}

	if err := a.refresher.RefreshAll(ctx); err != nil {
		slog.Warn("refresh incomplete, exporting what was fetched", "error", err)
	}

	if err := export.NewService(writer).Export(ctx, snapshot.Capture(a.agg)); err != nil {
		return exitf("Export failed: %v", err)
	}

	if c.Bool("sheets") {
		slog.Info("export written", "spreadsheet", cfg.SheetsSpreadsheetID)
	} else {
		slog.Info("export written", "path", c.String("out"))
	}
	return nil
}
