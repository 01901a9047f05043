package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// ReadConfig reads the run configuration from a two-column table: column A
// holds keywords, column B competitor identifiers. The first row is a header
// and is skipped. Keywords keep their order; competitors are lower-cased.
// Empty columns are warned about, not errors — a run with no keywords is a
// valid no-op.
func ReadConfig(ctx context.Context, table Table) (keywords, competitors []string, err error) {
	rows, err := table.Rows(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("read config table %s: %w", table.Name(), err)
	}

	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) > 0 {
			if keyword := strings.TrimSpace(row[0]); keyword != "" {
				keywords = append(keywords, keyword)
			}
		}
		if len(row) > 1 {
			if competitor := strings.ToLower(strings.TrimSpace(row[1])); competitor != "" {
				competitors = append(competitors, competitor)
			}
		}
	}

	if len(keywords) == 0 {
		slog.Warn("no keywords configured", slog.String("table", table.Name()))
	}
	if len(competitors) == 0 {
		slog.Warn("no competitors configured", slog.String("table", table.Name()))
	}
	return keywords, competitors, nil
}
