package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

// GoogleStore is the Google Sheets backend. Each table is one worksheet tab
// of a single spreadsheet.
type GoogleStore struct {
	svc           *sheetsapi.Service
	spreadsheetID string

	mu     sync.Mutex
	titles map[string]bool // worksheet titles known to exist
}

// NewGoogleStore authenticates with a service-account credentials payload and
// loads the spreadsheet's worksheet inventory. A payload that does not parse
// is a fatal configuration error for the caller.
func NewGoogleStore(ctx context.Context, credentialsJSON []byte, spreadsheetID string) (*GoogleStore, error) {
	creds, err := google.CredentialsFromJSON(ctx, credentialsJSON, sheetsapi.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	svc, err := sheetsapi.NewService(ctx, option.WithCredentials(creds))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	spreadsheet, err := svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("open spreadsheet %s: %w", spreadsheetID, err)
	}

	titles := make(map[string]bool, len(spreadsheet.Sheets))
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil {
			titles[sheet.Properties.Title] = true
		}
	}

	return &GoogleStore{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		titles:        titles,
	}, nil
}

// Get returns a worksheet-backed table or ErrTableNotFound.
func (s *GoogleStore) Get(ctx context.Context, name string) (Table, error) {
	s.mu.Lock()
	known := s.titles[name]
	s.mu.Unlock()
	if !known {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, name)
	}
	return s.table(name), nil
}

// GetOrCreate returns the worksheet, adding an empty one when absent.
func (s *GoogleStore) GetOrCreate(ctx context.Context, name string) (Table, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.titles[name] {
		slog.Info("worksheet not found, creating", slog.String("worksheet", name))
		req := &sheetsapi.BatchUpdateSpreadsheetRequest{
			Requests: []*sheetsapi.Request{{
				AddSheet: &sheetsapi.AddSheetRequest{
					Properties: &sheetsapi.SheetProperties{Title: name},
				},
			}},
		}
		if _, err := s.svc.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do(); err != nil {
			// Another writer may have added the tab between Get and here.
			if !strings.Contains(err.Error(), "already exists") {
				return nil, fmt.Errorf("add worksheet %s: %w", name, err)
			}
		}
		s.titles[name] = true
	}
	return s.table(name), nil
}

// Close is a no-op; the sheets service holds no persistent connection state.
func (s *GoogleStore) Close() error {
	return nil
}

func (s *GoogleStore) table(name string) *googleTable {
	return &googleTable{
		svc:           s.svc,
		spreadsheetID: s.spreadsheetID,
		name:          name,
	}
}

type googleTable struct {
	svc           *sheetsapi.Service
	spreadsheetID string
	name          string
}

func (t *googleTable) Name() string {
	return t.name
}

func (t *googleTable) HeaderRow(ctx context.Context) ([]string, error) {
	resp, err := t.svc.Spreadsheets.Values.
		Get(t.spreadsheetID, t.rangeRef("1:1")).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", t.name, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	return cellsToStrings(resp.Values[0]), nil
}

func (t *googleTable) InsertHeader(ctx context.Context, header []string) error {
	vr := &sheetsapi.ValueRange{Values: [][]any{stringsToCells(header)}}
	_, err := t.svc.Spreadsheets.Values.
		Update(t.spreadsheetID, t.rangeRef("A1"), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("insert header into %s: %w", t.name, err)
	}
	return nil
}

func (t *googleTable) Append(ctx context.Context, rows [][]string) error {
	values := make([][]any, 0, len(rows))
	for _, row := range rows {
		values = append(values, stringsToCells(row))
	}
	vr := &sheetsapi.ValueRange{Values: values}
	_, err := t.svc.Spreadsheets.Values.
		Append(t.spreadsheetID, t.rangeRef("A1"), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", t.name, err)
	}
	return nil
}

func (t *googleTable) Rows(ctx context.Context) ([][]string, error) {
	resp, err := t.svc.Spreadsheets.Values.
		Get(t.spreadsheetID, t.quotedName()).
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read rows of %s: %w", t.name, err)
	}
	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		rows = append(rows, cellsToStrings(row))
	}
	return rows, nil
}

// rangeRef quotes the worksheet title so names with spaces or non-ASCII
// characters form a valid A1 reference.
func (t *googleTable) rangeRef(cells string) string {
	return fmt.Sprintf("%s!%s", t.quotedName(), cells)
}

func (t *googleTable) quotedName() string {
	return "'" + strings.ReplaceAll(t.name, "'", "''") + "'"
}

func cellsToStrings(cells []any) []string {
	out := make([]string, 0, len(cells))
	for _, cell := range cells {
		if s, ok := cell.(string); ok {
			out = append(out, s)
			continue
		}
		out = append(out, fmt.Sprint(cell))
	}
	return out
}

func stringsToCells(row []string) []any {
	out := make([]any, 0, len(row))
	for _, cell := range row {
		out = append(out, cell)
	}
	return out
}
