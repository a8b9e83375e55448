package export

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter implements SheetWriter by writing an .xlsx workbook to a file.
type XLSXWriter struct {
	path string
}

// NewXLSXWriter creates an XLSXWriter that (over)writes path on every Write.
func NewXLSXWriter(path string) *XLSXWriter {
	return &XLSXWriter{path: path}
}

// Write renders sheets into a workbook at the writer's path.
func (w *XLSXWriter) Write(_ context.Context, sheets []Sheet) error {
	out, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", w.path, err)
	}

	if err := WriteXLSX(out, sheets); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", w.path, err)
	}
	return nil
}

// WriteXLSX renders sheets into an .xlsx workbook on out, one worksheet per Sheet in order.
func WriteXLSX(out io.Writer, sheets []Sheet) error {
	if len(sheets) == 0 {
		return fmt.Errorf("writing workbook: no sheets")
	}

	f := excelize.NewFile()
	defer f.Close()

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating header style: %w", err)
	}

	for i, s := range sheets {
		if i == 0 {
			if err := f.SetSheetName(f.GetSheetName(0), s.Name); err != nil {
				return fmt.Errorf("renaming first sheet to %s: %w", s.Name, err)
			}
		} else if _, err := f.NewSheet(s.Name); err != nil {
			return fmt.Errorf("creating sheet %s: %w", s.Name, err)
		}

		for r, row := range s.Rows {
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				return fmt.Errorf("addressing row %d: %w", r+1, err)
			}
			if err := f.SetSheetRow(s.Name, cell, &row); err != nil {
				return fmt.Errorf("writing %s row %d: %w", s.Name, r+1, err)
			}
		}

		if len(s.Rows) > 0 {
			if err := f.SetRowStyle(s.Name, 1, 1, header); err != nil {
				return fmt.Errorf("styling %s header: %w", s.Name, err)
			}
		}
	}

	f.SetActiveSheet(0)
	if err := f.Write(out); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}
