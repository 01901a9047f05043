// Package sheets provides the append-only tabular store the pipeline writes
// to, with Google Sheets, local CSV, and in-memory backends.
package sheets

import (
	"context"
	"errors"
)

// ErrTableNotFound reports a lookup for a table that does not exist.
var ErrTableNotFound = errors.New("sheets: table not found")

// Table is one named, header-plus-rows tab. Tables are append-only logs:
// the pipeline never updates or deletes rows.
type Table interface {
	Name() string
	// HeaderRow returns the first row, or an empty slice when the table
	// has no rows yet.
	HeaderRow(ctx context.Context) ([]string, error)
	// InsertHeader writes the header as the first row of an empty table.
	InsertHeader(ctx context.Context, header []string) error
	// Append adds rows after the last row, preserving input order.
	Append(ctx context.Context, rows [][]string) error
	// Rows returns every row including the header.
	Rows(ctx context.Context) ([][]string, error)
}

// Store exposes named tables. Get fails with ErrTableNotFound for absent
// tables; GetOrCreate creates an empty table on first reference.
type Store interface {
	Get(ctx context.Context, name string) (Table, error)
	GetOrCreate(ctx context.Context, name string) (Table, error)
	Close() error
}
