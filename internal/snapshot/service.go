// Package snapshot persists daily captures of the aggregated balance views.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// Views is the read side of the aggregator a snapshot is taken from.
type Views interface {
	Totals() []domain.BlockchainTotal
	AccountsFor(chain domain.Blockchain) []domain.AccountWithBalance
}

// Data is the JSON document stored per snapshot date.
type Data struct {
	Totals []domain.BlockchainTotal    `json:"totals"`
	BTC    []domain.AccountWithBalance `json:"btc"`
	BCH    []domain.AccountWithBalance `json:"bch"`
}

// Capture reads the current views into a Data document.
func Capture(v Views) Data {
	return Data{
		Totals: v.Totals(),
		BTC:    v.AccountsFor(domain.BlockchainBTC),
		BCH:    v.AccountsFor(domain.BlockchainBCH),
	}
}

// Service manages snapshot generation and retrieval.
type Service struct {
	views Views
	repo  Repository
}

// NewService creates a new snapshot Service.
func NewService(views Views, repo Repository) *Service {
	if views == nil || repo == nil {
		panic("snapshot.NewService: views and repo must not be nil")
	}
	return &Service{views: views, repo: repo}
}

// Generate captures the current views and stores them under date.
func (s *Service) Generate(ctx context.Context, date time.Time) (Data, error) {
	data := Capture(s.views)

	raw, err := json.Marshal(data)
	if err != nil {
		return Data{}, fmt.Errorf("marshaling snapshot data: %w", err)
	}

	if err := s.repo.Save(ctx, date, raw); err != nil {
		return Data{}, fmt.Errorf("saving snapshot: %w", err)
	}

	slog.Info("snapshot saved", "date", date.Format(time.DateOnly), "btcAccounts", len(data.BTC), "bchAccounts", len(data.BCH))
	return data, nil
}

// GetLatest retrieves the most recent snapshot.
func (s *Service) GetLatest(ctx context.Context) (*Snapshot, error) {
	return s.repo.GetLatest(ctx)
}

// GetByDate retrieves a snapshot for a specific date.
func (s *Service) GetByDate(ctx context.Context, date time.Time) (*Snapshot, error) {
	return s.repo.GetByDate(ctx, date)
}

// List retrieves recent snapshots, newest first.
func (s *Service) List(ctx context.Context, limit int) ([]Snapshot, error) {
	return s.repo.List(ctx, limit)
}
