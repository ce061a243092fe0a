package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"finsheets/internal/core"
	"finsheets/internal/log"
	ports "finsheets/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var _ ports.SheetExporter = (*Exporter)(nil)

// Credentials selects a service account key, inline or from a file.
type Credentials struct {
	JSON string
	File string
}

func (c Credentials) load() ([]byte, error) {
	switch {
	case strings.TrimSpace(c.JSON) != "":
		return []byte(c.JSON), nil
	case strings.TrimSpace(c.File) != "":
		data, err := os.ReadFile(c.File)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
}

// Exporter mirrors each sheet into its own tab of one spreadsheet. Tabs are
// found again by the short sheet id in their title, so renames survive.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

// NewExporter authenticates with a service account. Extra options are
// appended after the credentials.
func NewExporter(ctx context.Context, spreadsheetID string, creds Credentials, logger *log.Logger, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Default()
	}

	key, err := creds.load()
	if err != nil {
		return nil, err
	}

	options := append([]goption.ClientOption{
		goption.WithCredentialsJSON(key),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, opts...)

	svc, err := gsheet.NewService(ctx, options...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	return &Exporter{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentExport),
	}, nil
}

// ExportSheet rewrites the tab for s and returns the written A1 range.
func (e *Exporter) ExportSheet(ctx context.Context, s core.Sheet) (string, error) {
	title := TabTitle(s)

	tab, err := e.findTab(ctx, s.ID)
	if err != nil {
		return "", err
	}

	switch {
	case tab == nil:
		if err := e.batch(ctx, &gsheet.Request{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}); err != nil {
			return "", fmt.Errorf("add tab %q: %w", title, err)
		}
	case tab.Title != title:
		if err := e.batch(ctx, &gsheet.Request{
			UpdateSheetProperties: &gsheet.UpdateSheetPropertiesRequest{
				Properties: &gsheet.SheetProperties{SheetId: tab.SheetId, Title: title},
				Fields:     "title",
			},
		}); err != nil {
			return "", fmt.Errorf("rename tab %q: %w", tab.Title, err)
		}
	}

	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, quoteTitle(title), &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear tab %q: %w", title, err)
	}

	rows := BuildRows(s)
	ref := fmt.Sprintf("%s!A1:D%d", quoteTitle(title), len(rows))
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, ref, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("write tab %q: %w", title, err)
	}

	e.logger.InfoContext(ctx, "Sheet exported",
		log.FieldSheetID, s.ID,
		log.FieldEntryCount, len(s.Entries),
		"range", ref)
	return ref, nil
}

// RemoveSheet deletes the tab of sheetID. A missing tab is not an error.
func (e *Exporter) RemoveSheet(ctx context.Context, sheetID string) error {
	tab, err := e.findTab(ctx, sheetID)
	if err != nil {
		return err
	}
	if tab == nil {
		return nil
	}
	if err := e.batch(ctx, &gsheet.Request{
		DeleteSheet: &gsheet.DeleteSheetRequest{SheetId: tab.SheetId},
	}); err != nil {
		return fmt.Errorf("delete tab %q: %w", tab.Title, err)
	}
	e.logger.InfoContext(ctx, "Sheet tab removed", log.FieldSheetID, sheetID, "tab", tab.Title)
	return nil
}

func (e *Exporter) findTab(ctx context.Context, sheetID string) (*gsheet.SheetProperties, error) {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read spreadsheet: %w", err)
	}
	return findTab(ss.Sheets, sheetID), nil
}

func (e *Exporter) batch(ctx context.Context, reqs ...*gsheet.Request) error {
	_, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	return err
}
