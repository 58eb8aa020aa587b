package journal

import (
	"context"
	"errors"
	"fmt"

	"gardenjournal/internal/sheets"
)

// ErrNoHeader is returned when the records tab has no header row to map values onto.
var ErrNoHeader = errors.New("records tab has no header row")

// Sheet is the spreadsheet surface the repository needs.
type Sheet interface {
	Header(ctx context.Context, tab string) ([]string, error)
	AppendRow(ctx context.Context, tab string, values []interface{}) error
	ReadTable(ctx context.Context, tab string) (sheets.Table, error)
}

// Repository persists records as rows of a spreadsheet tab.
type Repository struct {
	sheet Sheet
	tab   string
}

// NewRepository creates a repo.
func NewRepository(sheet Sheet, tab string) *Repository {
	return &Repository{sheet: sheet, tab: tab}
}

// Append writes the record as a new row in header order.
func (r *Repository) Append(ctx context.Context, rec Record) error {
	header, err := r.sheet.Header(ctx, r.tab)
	if err != nil {
		return err
	}
	if len(header) == 0 {
		return ErrNoHeader
	}
	if err := r.sheet.AppendRow(ctx, r.tab, rec.Row(header)); err != nil {
		return fmt.Errorf("append record %s: %w", rec.ID, err)
	}
	return nil
}

// List returns every stored row as a summary, in sheet order.
// An empty tab returns an empty slice.
func (r *Repository) List(ctx context.Context) ([]Summary, error) {
	table, err := r.sheet.ReadTable(ctx, r.tab)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, table.Len())
	for _, values := range table.Records() {
		out = append(out, summarize(values))
	}
	return out, nil
}
