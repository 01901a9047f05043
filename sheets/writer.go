package sheets

import (
	"context"
	"fmt"
	"log/slog"
)

// TableWriter layers header management and batch-append semantics over one
// table.
type TableWriter struct {
	table Table
}

// NewTableWriter wraps a table.
func NewTableWriter(table Table) *TableWriter {
	return &TableWriter{table: table}
}

// Name returns the underlying table name.
func (w *TableWriter) Name() string {
	return w.table.Name()
}

// EnsureHeader writes the header only when the table currently has no first
// row. A non-empty header row is never overwritten, so calling this on every
// run is safe.
func (w *TableWriter) EnsureHeader(ctx context.Context, header []string) error {
	first, err := w.table.HeaderRow(ctx)
	if err != nil {
		return fmt.Errorf("read header of %s: %w", w.table.Name(), err)
	}
	if len(first) > 0 {
		return nil
	}
	if err := w.table.InsertHeader(ctx, header); err != nil {
		return fmt.Errorf("insert header into %s: %w", w.table.Name(), err)
	}
	return nil
}

// AppendRows appends all rows in input order. A no-op on empty input. When
// the batch append is rejected, rows are retried one at a time so a partial
// failure is surfaced instead of silently dropping rows.
func (w *TableWriter) AppendRows(ctx context.Context, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	batchErr := w.table.Append(ctx, rows)
	if batchErr == nil {
		return nil
	}
	slog.Warn("batch append rejected, retrying row by row",
		slog.String("table", w.table.Name()),
		slog.Int("rows", len(rows)),
		slog.Any("error", batchErr),
	)

	for i, row := range rows {
		if err := w.table.Append(ctx, [][]string{row}); err != nil {
			return fmt.Errorf("append row %d/%d to %s: %w", i+1, len(rows), w.table.Name(), err)
		}
	}
	return nil
}
