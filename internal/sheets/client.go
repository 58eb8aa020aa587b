// Package sheets reads and appends rows in the tabs of a Google spreadsheet.
// A tab is treated as a table whose first row holds the column headers.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/sheets/v4"
)

// Client talks to one spreadsheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
}

// New creates a client for the given spreadsheet.
func New(svc *sheets.Service, spreadsheetID string) *Client {
	return &Client{svc: svc, spreadsheetID: spreadsheetID}
}

// Table is the content of a tab split into header and data rows.
// Every row has exactly len(Header) cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Records returns each data row keyed by its header, like a list of dicts.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Header))
		for i, h := range t.Header {
			rec[h] = row[i]
		}
		out = append(out, rec)
	}
	return out
}

// Len returns the number of data rows.
func (t Table) Len() int { return len(t.Rows) }

// ReadTable loads the whole tab. An empty tab yields an empty table.
func (c *Client) ReadTable(ctx context.Context, tab string) (Table, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteTab(tab)).Context(ctx).Do()
	if err != nil {
		return Table{}, fmt.Errorf("sheets: read %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return Table{}, nil
	}

	header := cells(resp.Values[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	table := Table{Header: header}
	for _, raw := range resp.Values[1:] {
		row := cells(raw)
		if len(row) < len(header) {
			row = append(row, make([]string, len(header)-len(row))...)
		}
		table.Rows = append(table.Rows, row[:len(header)])
	}
	return table, nil
}

// Header returns the first row of the tab.
func (c *Client) Header(ctx context.Context, tab string) ([]string, error) {
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, quoteTab(tab)+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: read header of %s: %w", tab, err)
	}
	if len(resp.Values) == 0 {
		return nil, nil
	}
	header := cells(resp.Values[0])
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	return header, nil
}

// AppendRow adds one row after the last row of the tab. Values are stored as given:
// strings stay text, numbers become number cells.
func (c *Client) AppendRow(ctx context.Context, tab string, values []interface{}) error {
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, quoteTab(tab), &sheets.ValueRange{
		MajorDimension: "ROWS",
		Values:         [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("sheets: append to %s: %w", tab, err)
	}
	return nil
}

// quoteTab renders a tab name as an A1 sheet reference.
func quoteTab(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func cells(raw []interface{}) []string {
	out := make([]string, len(raw))
	for i, v := range raw {
		if v == nil {
			continue
		}
		out[i] = fmt.Sprint(v)
	}
	return out
}
