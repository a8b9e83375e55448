package export

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheets "google.golang.org/api/sheets/v4"

	"github.com/mtlprog/btcbalances/internal/domain"
)

// SheetsWriter implements SheetWriter using the Google Sheets API.
type SheetsWriter struct {
	spreadsheetID string
	svc           *sheets.Service
}

// NewSheetsWriter creates a SheetsWriter authenticated with a service account JSON.
func NewSheetsWriter(ctx context.Context, spreadsheetID, credentialsJSON string) (*SheetsWriter, error) {
	creds, err := google.CredentialsFromJSON(
		ctx,
		[]byte(credentialsJSON),
		sheets.SpreadsheetsScope,
	)
	if err != nil {
		return nil, fmt.Errorf("parsing google credentials: %w", err)
	}

	svc, err := sheets.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &SheetsWriter{spreadsheetID: spreadsheetID, svc: svc}, nil
}

// Write ensures every sheet exists, then clears and rewrites them in one batch.
func (w *SheetsWriter) Write(ctx context.Context, tables []Sheet) error {
	names := lo.Map(tables, func(s Sheet, _ int) string { return s.Name })
	if _, err := w.ensureSheets(ctx, names...); err != nil {
		return err
	}

	_, err := w.svc.Spreadsheets.Values.BatchClear(
		w.spreadsheetID,
		&sheets.BatchClearValuesRequest{
			Ranges: lo.Map(names, func(n string, _ int) string { return n + "!A:Z" }),
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheets: %w", err)
	}

	_, err = w.svc.Spreadsheets.Values.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateValuesRequest{
			ValueInputOption: "USER_ENTERED",
			Data: lo.Map(tables, func(s Sheet, _ int) *sheets.ValueRange {
				return &sheets.ValueRange{Range: s.Name + "!A1", Values: s.Rows}
			}),
		},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheets: %w", err)
	}

	return nil
}

// AppendHistory ensures the HISTORY sheet exists, writes its header if the sheet
// is empty, then appends one row with the given totals.
func (w *SheetsWriter) AppendHistory(ctx context.Context, at time.Time, totals []domain.BlockchainTotal) error {
	meta, err := w.ensureSheets(ctx, SheetHistory)
	if err != nil {
		return fmt.Errorf("ensuring %s sheet: %w", SheetHistory, err)
	}

	existing, err := w.svc.Spreadsheets.Values.Get(w.spreadsheetID, SheetHistory+"!A1").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("reading %s header: %w", SheetHistory, err)
	}

	if len(existing.Values) == 0 {
		_, err = w.svc.Spreadsheets.Values.Update(
			w.spreadsheetID,
			SheetHistory+"!A1",
			&sheets.ValueRange{Values: [][]any{historyHeader}},
		).ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("writing %s header: %w", SheetHistory, err)
		}
		if err := w.freezeHeader(ctx, meta[SheetHistory]); err != nil {
			return err
		}
	}

	_, err = w.svc.Spreadsheets.Values.Append(
		w.spreadsheetID,
		SheetHistory+"!A:D",
		&sheets.ValueRange{Values: [][]any{buildHistoryRow(totals, at)}},
	).ValueInputOption("USER_ENTERED").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("appending %s row: %w", SheetHistory, err)
	}

	return nil
}

// freezeHeader bolds and freezes the first row of a sheet.
func (w *SheetsWriter) freezeHeader(ctx context.Context, sheetID int64) error {
	reqs := []*sheets.Request{
		{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{SheetId: sheetID, StartRowIndex: 0, EndRowIndex: 1},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{TextFormat: &sheets.TextFormat{Bold: true}},
				},
				Fields: "userEnteredFormat.textFormat.bold",
			},
		},
		{
			UpdateSheetProperties: &sheets.UpdateSheetPropertiesRequest{
				Properties: &sheets.SheetProperties{
					SheetId:        sheetID,
					GridProperties: &sheets.GridProperties{FrozenRowCount: 1},
				},
				Fields: "gridProperties.frozenRowCount",
			},
		},
	}

	_, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: reqs},
	).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("formatting header: %w", err)
	}
	return nil
}

// ensureSheets creates any of the named sheets that do not already exist
// and returns the sheet IDs of all of them by title.
func (w *SheetsWriter) ensureSheets(ctx context.Context, names ...string) (map[string]int64, error) {
	spreadsheet, err := w.svc.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("getting spreadsheet metadata: %w", err)
	}

	ids := make(map[string]int64, len(spreadsheet.Sheets))
	for _, s := range spreadsheet.Sheets {
		ids[s.Properties.Title] = s.Properties.SheetId
	}

	var requests []*sheets.Request
	for _, name := range names {
		if _, ok := ids[name]; !ok {
			requests = append(requests, &sheets.Request{
				AddSheet: &sheets.AddSheetRequest{
					Properties: &sheets.SheetProperties{Title: name},
				},
			})
		}
	}

	if len(requests) == 0 {
		return ids, nil
	}

	resp, err := w.svc.Spreadsheets.BatchUpdate(
		w.spreadsheetID,
		&sheets.BatchUpdateSpreadsheetRequest{Requests: requests},
	).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("creating sheets: %w", err)
	}

	for _, r := range resp.Replies {
		if r.AddSheet != nil && r.AddSheet.Properties != nil {
			ids[r.AddSheet.Properties.Title] = r.AddSheet.Properties.SheetId
		}
	}
	return ids, nil
}
