package export

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/snapshot"
)

func sampleData() snapshot.Data {
	return snapshot.Data{
		Totals: []domain.BlockchainTotal{
			{Chain: domain.BlockchainBTC, Children: []domain.BlockchainTotal{}, USDValue: decimal.NewFromInt(110)},
			{Chain: domain.BlockchainBCH, Children: []domain.BlockchainTotal{}, USDValue: decimal.NewFromInt(5), Loading: true},
		},
		BTC: []domain.AccountWithBalance{
			{
				Chain:   domain.BlockchainBTC,
				Address: "a1",
				Label:   "cold",
				Tags:    []string{"savings", "hw"},
				Balance: domain.Balance{Amount: decimal.NewFromInt(1), USDValue: decimal.NewFromInt(100)},
			},
			{
				Chain:          domain.BlockchainBTC,
				Xpub:           "xpub1",
				DerivationPath: "m/0",
				Balance:        domain.Balance{Amount: decimal.RequireFromString("0.1"), USDValue: decimal.NewFromInt(10)},
				Derived: []domain.AccountWithBalance{
					{
						Chain:   domain.BlockchainBTC,
						Address: "d1",
						Balance: domain.Balance{Amount: decimal.RequireFromString("0.1"), USDValue: decimal.NewFromInt(10)},
					},
				},
			},
		},
		BCH: []domain.AccountWithBalance{
			{
				Chain:   domain.BlockchainBCH,
				Address: "q1",
				Balance: domain.Balance{Amount: decimal.NewFromInt(1), USDValue: decimal.NewFromInt(5)},
			},
		},
	}
}

func TestBuildWorkbook(t *testing.T) {
	sheets := BuildWorkbook(sampleData())

	wantNames := []string{"TOTALS", "BTC_ACCOUNTS", "BCH_ACCOUNTS"}
	if len(sheets) != len(wantNames) {
		t.Fatalf("sheets = %d, want %d", len(sheets), len(wantNames))
	}
	for i, name := range wantNames {
		if sheets[i].Name != name {
			t.Errorf("sheet[%d] = %q, want %q", i, sheets[i].Name, name)
		}
	}

	totals := sheets[0].Rows
	// header + 2 chains + TOTAL
	if len(totals) != 4 {
		t.Fatalf("totals rows = %d, want 4", len(totals))
	}
	if totals[1][0] != "BTC" || totals[1][1] != 110.0 || totals[1][2] != false {
		t.Errorf("BTC row = %v", totals[1])
	}
	if totals[2][2] != true {
		t.Errorf("BCH loading = %v, want true", totals[2][2])
	}
	if totals[3][0] != "TOTAL" || totals[3][1] != 115.0 {
		t.Errorf("TOTAL row = %v, want 115", totals[3])
	}

	btc := sheets[1].Rows
	// header + a1 + xpub + d1 + TOTAL
	if len(btc) != 5 {
		t.Fatalf("BTC rows = %d, want 5", len(btc))
	}
	if btc[1][2] != "savings, hw" {
		t.Errorf("tags = %v, want \"savings, hw\"", btc[1][2])
	}
	if btc[2][3] != "xpub1" || btc[2][4] != "m/0" {
		t.Errorf("xpub row = %v", btc[2])
	}
	if btc[3][0] != "d1" || btc[3][3] != "xpub1" {
		t.Errorf("derived row = %v, want d1 under xpub1", btc[3])
	}
	if btc[4][6] != 110.0 {
		t.Errorf("BTC total = %v, want 110", btc[4][6])
	}
}

func TestBuildHistoryRow(t *testing.T) {
	at := time.Date(2026, 2, 3, 22, 0, 0, 0, time.UTC)
	row := buildHistoryRow(sampleData().Totals, at)

	want := []any{"03.02.2026", 110.0, 5.0, 115.0}
	if len(row) != len(want) {
		t.Fatalf("row = %v, want %v", row, want)
	}
	for i := range want {
		if row[i] != want[i] {
			t.Errorf("row[%d] = %v, want %v", i, row[i], want[i])
		}
	}
	if len(historyHeader) != len(row) {
		t.Errorf("header columns = %d, row columns = %d", len(historyHeader), len(row))
	}
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, BuildWorkbook(sampleData())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("opening workbook: %v", err)
	}
	defer f.Close()

	list := f.GetSheetList()
	if len(list) != 3 || list[0] != "TOTALS" {
		t.Fatalf("sheet list = %v", list)
	}

	rows, err := f.GetRows("BCH_ACCOUNTS")
	if err != nil {
		t.Fatalf("reading rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("BCH rows = %d, want 3", len(rows))
	}
	if rows[0][0] != "Address" || rows[1][0] != "q1" {
		t.Errorf("BCH rows = %v", rows)
	}

	v, err := f.GetCellValue("TOTALS", "B4")
	if err != nil {
		t.Fatalf("reading cell: %v", err)
	}
	if v != "115" {
		t.Errorf("TOTALS!B4 = %q, want 115", v)
	}
}

func TestWriteXLSXNoSheets(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, nil); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestXLSXWriterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "balances.xlsx")
	w := NewXLSXWriter(path)
	if err := w.Write(context.Background(), BuildWorkbook(sampleData())); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("opening %s: %v", path, err)
	}
	defer f.Close()

	if got := f.GetSheetName(1); got != "BTC_ACCOUNTS" {
		t.Errorf("sheet 1 = %q, want BTC_ACCOUNTS", got)
	}
}

type mockWriter struct {
	sheets []Sheet
	err    error
}

func (m *mockWriter) Write(_ context.Context, sheets []Sheet) error {
	m.sheets = sheets
	return m.err
}

type mockHistoryWriter struct {
	mockWriter
	appended []domain.BlockchainTotal
	at       time.Time
}

func (m *mockHistoryWriter) AppendHistory(_ context.Context, at time.Time, totals []domain.BlockchainTotal) error {
	m.at = at
	m.appended = totals
	return nil
}

func TestServiceExport(t *testing.T) {
	w := &mockWriter{}
	if err := NewService(w).Export(context.Background(), sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.sheets) != 3 {
		t.Errorf("sheets written = %d, want 3", len(w.sheets))
	}
}

func TestServiceExportAppendsHistory(t *testing.T) {
	w := &mockHistoryWriter{}
	svc := NewService(w)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	if err := svc.Export(context.Background(), sampleData()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(w.appended) != 2 {
		t.Errorf("history totals = %d, want 2", len(w.appended))
	}
	if !w.at.Equal(fixed) {
		t.Errorf("history time = %v, want %v", w.at, fixed)
	}
}

func TestServiceExportWriteError(t *testing.T) {
	w := &mockHistoryWriter{mockWriter: mockWriter{err: errors.New("quota")}}
	if err := NewService(w).Export(context.Background(), sampleData()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if w.appended != nil {
		t.Error("history should not be appended after a failed write")
	}
}
