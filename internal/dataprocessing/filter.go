package dataprocessing

import (
	"fmt"
	"strings"

	"sheetpulse/pkg/contracts/domain"
)

// ViewOptions bound a table view.
type ViewOptions struct {
	DefaultRowLimit int
	MinRowLimit     int
	DefaultColumns  int
}

// DefaultViewOptions returns the table-view defaults.
func DefaultViewOptions() ViewOptions {
	return ViewOptions{DefaultRowLimit: 100, MinRowLimit: 10, DefaultColumns: 10}
}

// ApplyQuery searches, projects and caps one sheet.
// Search matches a row when any cell contains the term, case-insensitively,
// before columns are projected.
func ApplyQuery(sheet *domain.Sheet, q domain.TableQuery, opts ViewOptions) (*domain.TableView, error) {
	t := sheet.Table

	cols, err := selectColumns(t, q.Columns, opts.DefaultColumns)
	if err != nil {
		return nil, err
	}

	matched := t.Rows
	if q.Search != "" {
		term := strings.ToLower(q.Search)
		matched = make([][]any, 0, len(t.Rows))
		for _, row := range t.Rows {
			if rowContains(row, term) {
				matched = append(matched, row)
			}
		}
	}

	limit := q.Limit
	if limit <= 0 {
		limit = min(opts.DefaultRowLimit, t.NumRows())
	}
	if limit < opts.MinRowLimit {
		limit = opts.MinRowLimit
	}
	shown := matched[:min(limit, len(matched))]

	labels := make([]string, len(cols))
	for i, c := range cols {
		labels[i] = t.Columns[c]
	}
	rows := make([][]any, len(shown))
	for r, row := range shown {
		cells := make([]any, len(cols))
		for i, c := range cols {
			cells[i] = row[c]
		}
		rows[r] = cells
	}

	return &domain.TableView{
		Sheet:           sheet.Name,
		Columns:         labels,
		Rows:            rows,
		TotalRows:       t.NumRows(),
		MatchedRows:     len(matched),
		DisplayedRows:   len(rows),
		TotalColumns:    t.NumColumns(),
		SelectedColumns: len(labels),
	}, nil
}

func selectColumns(t *domain.Table, requested []string, defaultCount int) ([]int, error) {
	if len(requested) == 0 {
		n := t.NumColumns()
		if defaultCount > 0 && n > defaultCount {
			n = defaultCount
		}
		cols := make([]int, n)
		for i := range cols {
			cols[i] = i
		}
		return cols, nil
	}

	cols := make([]int, 0, len(requested))
	for _, label := range requested {
		idx := t.ColumnIndex(label)
		if idx < 0 {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownColumn, label)
		}
		cols = append(cols, idx)
	}
	return cols, nil
}

func rowContains(row []any, term string) bool {
	for _, v := range row {
		if strings.Contains(strings.ToLower(CellString(v)), term) {
			return true
		}
	}
	return false
}
