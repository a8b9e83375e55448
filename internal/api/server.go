// Package api serves the balance views and snapshots over HTTP.
package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/mtlprog/btcbalances/internal/aggregator"
	"github.com/mtlprog/btcbalances/internal/snapshot"
)

// NewServer creates an HTTP server with all routes configured.
// Snapshot routes need a snapshot service, the refresh route a refresher and the
// account mutation routes an editor; nil disables them.
func NewServer(port string, registry *aggregator.Registry, snapshots *snapshot.Service, refresher Refresher, accounts AccountEditor, adminAPIKey string) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      NewMux(NewHandler(registry, snapshots, refresher, accounts), adminAPIKey),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewMux registers the handler's routes. Mutating routes require the admin key when one is set.
func NewMux(handler *Handler, adminAPIKey string) *http.ServeMux {
	protect := func(h http.HandlerFunc) http.Handler {
		if adminAPIKey == "" {
			return h
		}
		return requireAuth(adminAPIKey, h)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/accounts/{chain}", handler.GetAccounts)
	mux.HandleFunc("GET /api/v1/totals", handler.GetTotals)
	mux.HandleFunc("GET /api/v1/breakdown/{asset}", handler.GetBreakdown)

	if handler.accounts != nil {
		mux.Handle("POST /api/v1/accounts/{chain}", protect(handler.AddAccount))
		mux.Handle("DELETE /api/v1/accounts/{chain}/{key}", protect(handler.RemoveAccount))
	}

	if handler.refresher != nil {
		mux.Handle("POST /api/v1/refresh", protect(handler.Refresh))
	}

	if handler.snapshots != nil {
		mux.HandleFunc("GET /api/v1/snapshots/latest", handler.GetLatestSnapshot)
		mux.HandleFunc("GET /api/v1/snapshots/{date}", handler.GetSnapshotByDate)
		mux.HandleFunc("GET /api/v1/snapshots", handler.ListSnapshots)
		mux.Handle("POST /api/v1/snapshots/generate", protect(handler.GenerateSnapshot))
	}

	return mux
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token := strings.TrimPrefix(auth, "Bearer ")
		if !strings.HasPrefix(auth, "Bearer ") || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
