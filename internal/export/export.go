// Package export writes balance snapshots to spreadsheets.
package export

import (
	"context"
	"fmt"
	"time"

	"github.com/mtlprog/btcbalances/internal/domain"
	"github.com/mtlprog/btcbalances/internal/snapshot"
)

// SheetWriter writes a set of sheets to a spreadsheet destination.
type SheetWriter interface {
	Write(ctx context.Context, sheets []Sheet) error
}

// HistoryAppender is implemented by writers that keep a running per-day totals log.
type HistoryAppender interface {
	AppendHistory(ctx context.Context, at time.Time, totals []domain.BlockchainTotal) error
}

// Service lays out snapshot data and delegates writing to a SheetWriter.
type Service struct {
	writer SheetWriter
	now    func() time.Time
}

// NewService creates a new export Service.
func NewService(writer SheetWriter) *Service {
	if writer == nil {
		panic("export.NewService: writer must not be nil")
	}
	return &Service{writer: writer, now: time.Now}
}

// Export writes the workbook for data and, when the writer supports it, appends a history row.
// Implements worker.AfterSnapshotHook.
func (s *Service) Export(ctx context.Context, data snapshot.Data) error {
	if err := s.writer.Write(ctx, BuildWorkbook(data)); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}

	if h, ok := s.writer.(HistoryAppender); ok {
		if err := h.AppendHistory(ctx, s.now(), data.Totals); err != nil {
			return fmt.Errorf("appending history: %w", err)
		}
	}
	return nil
}
