package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mtlprog/btcbalances/internal/aggregator"
	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/snapshot"
)

// BalanceViews is the read side of the balance aggregator.
type BalanceViews interface {
	Totals() []domain.BlockchainTotal
	AccountsFor(chain domain.Blockchain) []domain.AccountWithBalance
	Breakdown(asset string) []domain.AssetBreakdown
}

// Refresher triggers on-demand balance refreshes.
type Refresher interface {
	Refresh(ctx context.Context, chain domain.Blockchain) error
	RefreshAll(ctx context.Context) error
	InvalidatePrices()
}

// AccountEditor mutates the tracked account lists.
type AccountEditor interface {
	Add(chain domain.Blockchain, account domain.Account) error
	Remove(chain domain.Blockchain, key string) bool
}

// Handler provides HTTP endpoints for the balances API.
type Handler struct {
	registry  *aggregator.Registry
	snapshots *snapshot.Service
	refresher Refresher
	accounts  AccountEditor
}

// NewHandler creates a new API handler. The aggregator is looked up in registry on every request.
func NewHandler(registry *aggregator.Registry, snapshots *snapshot.Service, refresher Refresher, accounts AccountEditor) *Handler {
	if registry == nil {
		panic("api.NewHandler: registry must not be nil")
	}
	return &Handler{registry: registry, snapshots: snapshots, refresher: refresher, accounts: accounts}
}

func (h *Handler) views(w http.ResponseWriter) (BalanceViews, bool) {
	v, ok := aggregator.Lookup[BalanceViews](h.registry, aggregator.StoreID)
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "balances not available")
	}
	return v, ok
}

// GetAccounts handles GET /api/v1/accounts/{chain}.
func (h *Handler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	chain, err := domain.ParseBlockchain(r.PathValue("chain"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown chain")
		return
	}
	v, ok := h.views(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.AccountsFor(chain))
}

// AddAccount handles POST /api/v1/accounts/{chain}. The body is a single account.
func (h *Handler) AddAccount(w http.ResponseWriter, r *http.Request) {
	const maxBody = 1 << 20
	chain, err := domain.ParseBlockchain(r.PathValue("chain"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown chain")
		return
	}

	var account domain.Account
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&account); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account JSON")
		return
	}
	if err := account.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid account: "+err.Error())
		return
	}
	if err := h.accounts.Add(chain, account); err != nil {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	slog.Info("account added", "chain", chain, "key", account.Key())

	v, ok := h.views(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, v.AccountsFor(chain))
}

// RemoveAccount handles DELETE /api/v1/accounts/{chain}/{key}, where key is the address or xpub.
func (h *Handler) RemoveAccount(w http.ResponseWriter, r *http.Request) {
	chain, err := domain.ParseBlockchain(r.PathValue("chain"))
	if err != nil {
		writeError(w, http.StatusNotFound, "unknown chain")
		return
	}
	key := r.PathValue("key")
	if !h.accounts.Remove(chain, key) {
		writeError(w, http.StatusNotFound, "account not found")
		return
	}
	slog.Info("account removed", "chain", chain, "key", key)

	v, ok := h.views(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.AccountsFor(chain))
}

// GetTotals handles GET /api/v1/totals.
func (h *Handler) GetTotals(w http.ResponseWriter, r *http.Request) {
	v, ok := h.views(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Totals())
}

// GetBreakdown handles GET /api/v1/breakdown/{asset}.
func (h *Handler) GetBreakdown(w http.ResponseWriter, r *http.Request) {
	v, ok := h.views(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Breakdown(r.PathValue("asset")))
}

// Refresh handles POST /api/v1/refresh. An optional ?chain= limits the refresh to one chain.
// Cached prices are dropped first so a manual refresh always prices at current quotes.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var err error
	if c := r.URL.Query().Get("chain"); c != "" {
		chain, perr := domain.ParseBlockchain(c)
		if perr != nil {
			writeError(w, http.StatusNotFound, "unknown chain")
			return
		}
		h.refresher.InvalidatePrices()
		err = h.refresher.Refresh(r.Context(), chain)
	} else {
		h.refresher.InvalidatePrices()
		err = h.refresher.RefreshAll(r.Context())
	}
	if err != nil {
		slog.Error("refresh failed", "error", err)
		writeError(w, http.StatusBadGateway, "refresh failed")
		return
	}

	v, ok := h.views(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, v.Totals())
}

// GetLatestSnapshot handles GET /api/v1/snapshots/latest.
func (h *Handler) GetLatestSnapshot(w http.ResponseWriter, r *http.Request) {
	s, err := h.snapshots.GetLatest(r.Context())
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "no snapshots found")
			return
		}
		slog.Error("failed to get latest snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GetSnapshotByDate handles GET /api/v1/snapshots/{date}.
func (h *Handler) GetSnapshotByDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	date, err := time.Parse(time.DateOnly, dateStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format, expected YYYY-MM-DD")
		return
	}

	s, err := h.snapshots.GetByDate(r.Context(), date)
	if err != nil {
		if errors.Is(err, snapshot.ErrNotFound) {
			writeError(w, http.StatusNotFound, "snapshot not found for date")
			return
		}
		slog.Error("failed to get snapshot by date", "date", dateStr, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// ListSnapshots handles GET /api/v1/snapshots.
func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 365
	limit := 30
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	snapshots, err := h.snapshots.List(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list snapshots", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if snapshots == nil {
		snapshots = []snapshot.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snapshots)
}

// GenerateSnapshot handles POST /api/v1/snapshots/generate.
func (h *Handler) GenerateSnapshot(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	data, err := h.snapshots.Generate(r.Context(), date)
	if err != nil {
		slog.Error("failed to generate snapshot", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to generate snapshot")
		return
	}
	writeJSON(w, http.StatusOK, data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
