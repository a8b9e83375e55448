package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/btcbalances/internal/aggregator"
	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/snapshot"
	"github.com/mtlprog/btcbalances/internal/store"
)

type mockSnapshotRepo struct {
	snapshots     []snapshot.Snapshot
	saved         json.RawMessage
	lastListLimit int
}

func (m *mockSnapshotRepo) Save(_ context.Context, _ time.Time, data json.RawMessage) error {
	m.saved = data
	return nil
}

func (m *mockSnapshotRepo) GetLatest(_ context.Context) (*snapshot.Snapshot, error) {
	if len(m.snapshots) == 0 {
		return nil, snapshot.ErrNotFound
	}
	return &m.snapshots[0], nil
}

func (m *mockSnapshotRepo) GetByDate(_ context.Context, date time.Time) (*snapshot.Snapshot, error) {
	for _, s := range m.snapshots {
		if s.SnapshotDate.Equal(date) {
			return &s, nil
		}
	}
	return nil, snapshot.ErrNotFound
}

func (m *mockSnapshotRepo) List(_ context.Context, limit int) ([]snapshot.Snapshot, error) {
	m.lastListLimit = limit
	if limit > len(m.snapshots) {
		limit = len(m.snapshots)
	}
	return m.snapshots[:limit], nil
}

type mockRefresher struct {
	chain       domain.Blockchain
	all         bool
	err         error
	onCall      func()
	invalidated int
}

func (m *mockRefresher) InvalidatePrices() {
	m.invalidated++
}

func (m *mockRefresher) Refresh(_ context.Context, chain domain.Blockchain) error {
	m.chain = chain
	if m.onCall != nil {
		m.onCall()
	}
	return m.err
}

func (m *mockRefresher) RefreshAll(_ context.Context) error {
	m.all = true
	if m.onCall != nil {
		m.onCall()
	}
	return m.err
}

type testEnv struct {
	registry *aggregator.Registry
	accounts *store.AccountStore
	balances *store.BalanceStore
	loading  *store.SectionTracker
	agg      *aggregator.Aggregator
	repo     *mockSnapshotRepo
	refresh  *mockRefresher
	mux      *http.ServeMux
}

func newTestEnv(t *testing.T, adminKey string) *testEnv {
	t.Helper()
	env := &testEnv{
		registry: aggregator.NewRegistry(),
		accounts: store.NewAccountStore(),
		balances: store.NewBalanceStore(),
		loading:  store.NewSectionTracker(),
		repo:     &mockSnapshotRepo{},
		refresh:  &mockRefresher{},
	}

	env.accounts.Set(domain.BlockchainBTC, []domain.Account{{Address: "a1", Tags: []string{"cold"}}})
	env.balances.Set(domain.BlockchainBTC, domain.ChainBalances{Standalone: map[string]domain.Balance{
		"a1": {Amount: decimal.NewFromInt(2), USDValue: decimal.NewFromInt(10)},
	}})

	env.agg = aggregator.New(env.accounts, env.balances, env.loading)
	t.Cleanup(env.agg.Close)
	if err := env.agg.Register(env.registry); err != nil {
		t.Fatalf("registering aggregator: %v", err)
	}

	snapshots := snapshot.NewService(env.agg, env.repo)
	env.mux = NewMux(NewHandler(env.registry, snapshots, env.refresh, env.accounts), adminKey)
	return env
}

func (e *testEnv) do(method, target string, header ...string) *httptest.ResponseRecorder {
	return e.send(method, target, "", header...)
}

func (e *testEnv) send(method, target, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func TestGetAccounts(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/v1/accounts/btc")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	rows := decode[[]domain.AccountWithBalance](t, w)
	if len(rows) != 1 || rows[0].Address != "a1" {
		t.Fatalf("rows = %+v, want a1", rows)
	}
	if !rows[0].Balance.USDValue.Equal(decimal.NewFromInt(10)) {
		t.Errorf("usdValue = %s, want 10", rows[0].Balance.USDValue)
	}

	w = env.do(http.MethodGet, "/api/v1/accounts/BCH")
	if w.Code != http.StatusOK {
		t.Fatalf("BCH status = %d, want 200", w.Code)
	}
	if rows := decode[[]domain.AccountWithBalance](t, w); len(rows) != 0 {
		t.Errorf("BCH rows = %d, want 0", len(rows))
	}
}

func TestGetAccountsUnknownChain(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/v1/accounts/eth")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetTotals(t *testing.T) {
	env := newTestEnv(t, "")
	env.loading.SetStatus(domain.SectionBlockchainBCH, store.StatusLoading)

	w := env.do(http.MethodGet, "/api/v1/totals")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	totals := decode[[]domain.BlockchainTotal](t, w)
	if len(totals) != 2 {
		t.Fatalf("totals = %d, want 2", len(totals))
	}
	if totals[0].Chain != domain.BlockchainBTC || !totals[0].USDValue.Equal(decimal.NewFromInt(10)) || totals[0].Loading {
		t.Errorf("BTC total = %+v", totals[0])
	}
	if totals[1].Chain != domain.BlockchainBCH || !totals[1].Loading {
		t.Errorf("BCH total = %+v, want loading", totals[1])
	}
	if totals[0].Children == nil || len(totals[0].Children) != 0 {
		t.Errorf("children = %v, want empty list", totals[0].Children)
	}
}

func TestGetBreakdown(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/v1/breakdown/BTC")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	entries := decode[[]domain.AssetBreakdown](t, w)
	if len(entries) != 1 || entries[0].Address != "a1" || entries[0].Location != domain.BlockchainBTC {
		t.Errorf("entries = %+v", entries)
	}

	w = env.do(http.MethodGet, "/api/v1/breakdown/ETH")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if body := w.Body.String(); body != "[]\n" {
		t.Errorf("body = %q, want empty list", body)
	}
}

func TestViewsUnavailable(t *testing.T) {
	mux := NewMux(NewHandler(aggregator.NewRegistry(), nil, nil, nil), "")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/totals", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestRefreshAll(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodPost, "/api/v1/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !env.refresh.all {
		t.Error("RefreshAll was not called")
	}
	if env.refresh.invalidated != 1 {
		t.Errorf("price invalidations = %d, want 1", env.refresh.invalidated)
	}
}

func TestAddAccount(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.send(http.MethodPost, "/api/v1/accounts/btc", `{"address":"a2","label":"hot"}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", w.Code, w.Body.String())
	}
	rows := decode[[]domain.AccountWithBalance](t, w)
	if len(rows) != 2 || rows[1].Address != "a2" || rows[1].Label != "hot" {
		t.Errorf("rows = %+v, want a1 then a2", rows)
	}
	if got := len(env.accounts.Accounts(domain.BlockchainBTC)); got != 2 {
		t.Errorf("stored accounts = %d, want 2", got)
	}
}

func TestAddAccountRejected(t *testing.T) {
	tests := []struct {
		name   string
		target string
		body   string
		want   int
	}{
		{"unknown chain", "/api/v1/accounts/eth", `{"address":"a2"}`, http.StatusNotFound},
		{"malformed JSON", "/api/v1/accounts/btc", `{"address":`, http.StatusBadRequest},
		{"nothing to track", "/api/v1/accounts/btc", `{"label":"empty"}`, http.StatusBadRequest},
		{"empty xpub", "/api/v1/accounts/btc", `{"xpub":{"derivationPath":"m/0"}}`, http.StatusBadRequest},
		{"duplicate", "/api/v1/accounts/btc", `{"address":"a1"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, "")
			w := env.send(http.MethodPost, tt.target, tt.body)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
			if got := len(env.accounts.Accounts(domain.BlockchainBTC)); got != 1 {
				t.Errorf("stored accounts = %d, want 1", got)
			}
		})
	}
}

func TestRemoveAccount(t *testing.T) {
	env := newTestEnv(t, "")

	if w := env.do(http.MethodDelete, "/api/v1/accounts/btc/missing"); w.Code != http.StatusNotFound {
		t.Errorf("missing key status = %d, want 404", w.Code)
	}

	w := env.do(http.MethodDelete, "/api/v1/accounts/btc/a1")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if rows := decode[[]domain.AccountWithBalance](t, w); len(rows) != 0 {
		t.Errorf("rows = %+v, want empty", rows)
	}

	totals := decode[[]domain.BlockchainTotal](t, env.do(http.MethodGet, "/api/v1/totals"))
	if !totals[0].USDValue.IsZero() {
		t.Errorf("BTC total after removal = %s, want 0", totals[0].USDValue)
	}
}

func TestRefreshChain(t *testing.T) {
	env := newTestEnv(t, "")
	env.refresh.onCall = func() {
		env.balances.Set(domain.BlockchainBTC, domain.ChainBalances{Standalone: map[string]domain.Balance{
			"a1": {Amount: decimal.NewFromInt(3), USDValue: decimal.NewFromInt(30)},
		}})
	}

	w := env.do(http.MethodPost, "/api/v1/refresh?chain=btc")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if env.refresh.chain != domain.BlockchainBTC {
		t.Errorf("chain = %q, want BTC", env.refresh.chain)
	}

	totals := decode[[]domain.BlockchainTotal](t, w)
	if !totals[0].USDValue.Equal(decimal.NewFromInt(30)) {
		t.Errorf("BTC total after refresh = %s, want 30", totals[0].USDValue)
	}
}

func TestRefreshFailure(t *testing.T) {
	env := newTestEnv(t, "")
	env.refresh.err = errors.New("explorer down")

	w := env.do(http.MethodPost, "/api/v1/refresh")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

func TestGetLatestSnapshotNotFound(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodGet, "/api/v1/snapshots/latest")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestGetSnapshotByDate(t *testing.T) {
	env := newTestEnv(t, "")
	date := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	env.repo.snapshots = []snapshot.Snapshot{{SnapshotDate: date, Data: json.RawMessage(`{"totals":[]}`)}}

	w := env.do(http.MethodGet, "/api/v1/snapshots/2026-01-15")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	if w := env.do(http.MethodGet, "/api/v1/snapshots/2026-01-16"); w.Code != http.StatusNotFound {
		t.Errorf("missing date status = %d, want 404", w.Code)
	}
	if w := env.do(http.MethodGet, "/api/v1/snapshots/15.01.2026"); w.Code != http.StatusBadRequest {
		t.Errorf("bad date status = %d, want 400", w.Code)
	}
}

func TestListSnapshotsLimit(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		query string
		want  int
	}{
		{"", 30},
		{"?limit=5", 5},
		{"?limit=1000", 365},
		{"?limit=-1", 30},
		{"?limit=abc", 30},
	}

	for _, tt := range tests {
		w := env.do(http.MethodGet, "/api/v1/snapshots"+tt.query)
		if w.Code != http.StatusOK {
			t.Fatalf("%q: status = %d, want 200", tt.query, w.Code)
		}
		if env.repo.lastListLimit != tt.want {
			t.Errorf("%q: limit = %d, want %d", tt.query, env.repo.lastListLimit, tt.want)
		}
		if body := w.Body.String(); body != "[]\n" {
			t.Errorf("%q: body = %q, want empty list", tt.query, body)
		}
	}
}

func TestGenerateSnapshot(t *testing.T) {
	env := newTestEnv(t, "")

	w := env.do(http.MethodPost, "/api/v1/snapshots/generate")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	data := decode[snapshot.Data](t, w)
	if len(data.Totals) != 2 || len(data.BTC) != 1 {
		t.Errorf("data = %+v", data)
	}
	if len(env.repo.saved) == 0 {
		t.Error("snapshot was not saved")
	}
}

func TestOptionalRoutesDisabled(t *testing.T) {
	registry := aggregator.NewRegistry()
	mux := NewMux(NewHandler(registry, nil, nil, nil), "")

	for _, target := range []string{"/api/v1/snapshots/latest", "/api/v1/snapshots"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, req)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: status = %d, want 404", target, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/refresh", nil)
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	if w.Code == http.StatusOK {
		t.Errorf("refresh status = %d, want not 200", w.Code)
	}
}
