package sync

import (
	"context"
	"fmt"
	"strings"
	stdsync "sync"

	"google.golang.org/api/sheets/v4"
)

// SheetsWriter abstracts the Google Sheets operations the sync needs, so
// tests run against an in-memory fake.
type SheetsWriter interface {
	ReadSheet(ctx context.Context, spreadsheetID, tab string) ([][]interface{}, error)
	ClearSheet(ctx context.Context, spreadsheetID, tab string) error
	WriteToSheet(ctx context.Context, spreadsheetID, tab string, data [][]interface{}) error
	EnsureSheet(ctx context.Context, spreadsheetID, tab string) error
	SetBackground(ctx context.Context, spreadsheetID, tab string, startRow, endRow, startCol, endCol int64, color Color) error
}

// RealSheetsWriter talks to the Sheets API.
type RealSheetsWriter struct {
	service *sheets.Service

	mu       stdsync.Mutex
	sheetIDs map[string]int64 // "spreadsheetID/tab" -> sheetId
}

// NewRealSheetsWriter wraps an authenticated Sheets service.
func NewRealSheetsWriter(service *sheets.Service) *RealSheetsWriter {
	return &RealSheetsWriter{
		service:  service,
		sheetIDs: make(map[string]int64),
	}
}

func (w *RealSheetsWriter) ReadSheet(ctx context.Context, spreadsheetID, tab string) ([][]interface{}, error) {
	resp, err := w.service.Spreadsheets.Values.Get(spreadsheetID, tab).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", tab, err)
	}
	return resp.Values, nil
}

func (w *RealSheetsWriter) ClearSheet(ctx context.Context, spreadsheetID, tab string) error {
	_, err := w.service.Spreadsheets.Values.Clear(spreadsheetID, tab, &sheets.ClearValuesRequest{}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clearing sheet %s: %w", tab, err)
	}
	return nil
}

func (w *RealSheetsWriter) WriteToSheet(ctx context.Context, spreadsheetID, tab string, data [][]interface{}) error {
	valueRange := &sheets.ValueRange{Values: data}
	_, err := w.service.Spreadsheets.Values.Update(spreadsheetID, tab+"!A1", valueRange).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing sheet %s: %w", tab, err)
	}
	return nil
}

// EnsureSheet creates the tab if it does not exist yet.
func (w *RealSheetsWriter) EnsureSheet(ctx context.Context, spreadsheetID, tab string) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: tab},
			},
		}},
	}
	_, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		if strings.Contains(err.Error(), "already exists") {
			return nil
		}
		return fmt.Errorf("creating sheet %s: %w", tab, err)
	}
	// New tab, refresh the id cache next lookup.
	w.mu.Lock()
	delete(w.sheetIDs, spreadsheetID+"/"+tab)
	w.mu.Unlock()
	return nil
}

// SetBackground applies a background color to a half-open cell range.
func (w *RealSheetsWriter) SetBackground(ctx context.Context, spreadsheetID, tab string, startRow, endRow, startCol, endCol int64, color Color) error {
	sheetID, err := w.sheetID(ctx, spreadsheetID, tab)
	if err != nil {
		return err
	}
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			RepeatCell: &sheets.RepeatCellRequest{
				Range: &sheets.GridRange{
					SheetId:          sheetID,
					StartRowIndex:    startRow,
					EndRowIndex:      endRow,
					StartColumnIndex: startCol,
					EndColumnIndex:   endCol,
				},
				Cell: &sheets.CellData{
					UserEnteredFormat: &sheets.CellFormat{
						BackgroundColor: &sheets.Color{
							Red:   color.R,
							Green: color.G,
							Blue:  color.B,
						},
					},
				},
				Fields: "userEnteredFormat.backgroundColor",
			},
		}},
	}
	if _, err := w.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("formatting sheet %s: %w", tab, err)
	}
	return nil
}

// sheetID resolves a tab title to its numeric sheet id, with caching.
func (w *RealSheetsWriter) sheetID(ctx context.Context, spreadsheetID, tab string) (int64, error) {
	cacheKey := spreadsheetID + "/" + tab
	w.mu.Lock()
	if id, ok := w.sheetIDs[cacheKey]; ok {
		w.mu.Unlock()
		return id, nil
	}
	w.mu.Unlock()

	resp, err := w.service.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("looking up sheet ids: %w", err)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	for _, sheet := range resp.Sheets {
		if sheet.Properties == nil {
			continue
		}
		w.sheetIDs[spreadsheetID+"/"+sheet.Properties.Title] = sheet.Properties.SheetId
	}
	id, ok := w.sheetIDs[cacheKey]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found in spreadsheet", tab)
	}
	return id, nil
}
