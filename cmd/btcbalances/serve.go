package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mtlprog/btcbalances/internal/api"
	"github.com/mtlprog/btcbalances/internal/database"
	"github.com/mtlprog/btcbalances/internal/export"
	"github.com/mtlprog/btcbalances/internal/snapshot"
	"github.com/mtlprog/btcbalances/internal/worker"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

func runServe(c *cli.Context) error {
	ctx := c.Context
	cfg := loadConfig(c)

	a, err := newApp(cfg)
	if err != nil {
		return exitf("Failed to initialise: %v", err)
	}
	defer a.Close()

	go worker.NewRefreshWorker(a.refresher, cfg.RefreshInterval).Run(ctx)

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go reloadOnSignal(ctx, hup, a)

	// Snapshots need PostgreSQL; without it the API serves live views only
	var snapshotSvc *snapshot.Service
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, snapshots disabled")
	} else {
		pool, err := database.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return exitf("Failed to connect to database: %v", err)
		}
		defer pool.Close()

		migrationsSub, err := fs.Sub(migrationsFS, "migrations")
		if err != nil {
			return exitf("Failed to create migrations sub-fs: %v", err)
		}
		if err := database.RunMigrations(ctx, pool, migrationsSub); err != nil {
			return exitf("Failed to run migrations: %v", err)
		}

		snapshotSvc = snapshot.NewService(a.agg, snapshot.NewPgRepository(pool))

		var hook worker.AfterSnapshotHook
		if cfg.SheetsSpreadsheetID != "" && cfg.GoogleCredentialsJSON != "" {
			writer, err := export.NewSheetsWriter(ctx, cfg.SheetsSpreadsheetID, cfg.GoogleCredentialsJSON)
			if err != nil {
				return exitf("Failed to create sheets writer: %v", err)
			}
			hook = export.NewService(writer)
		}
		go worker.NewSnapshotWorker(snapshotSvc, cfg.SnapshotInterval, hook, a.refresher).Run(ctx)
	}

	if cfg.AdminAPIKey == "" {
		slog.Warn("ADMIN_API_KEY not set, refresh, generate and account endpoints are unprotected")
	}

	srv := api.NewServer(cfg.HTTPPort, a.registry, snapshotSvc, a.refresher, a.accounts, cfg.AdminAPIKey)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return exitf("HTTP server error: %v", err)
	}
	slog.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	slog.Info("Shutdown complete")
	return nil
}

// reloadOnSignal re-reads the accounts file on every signal received from sig.
// The aggregator picks up the new lists on its next read.
func reloadOnSignal(ctx context.Context, sig <-chan os.Signal, a *app) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-sig:
			if err := a.reloadAccounts(); err != nil {
				slog.Error("accounts reload failed", "error", err)
				continue
			}
			slog.Info("accounts reloaded", "file", a.cfg.AccountsFile)
		}
	}
}
