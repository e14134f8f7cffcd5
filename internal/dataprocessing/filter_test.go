package dataprocessing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/pkg/contracts/domain"
)

func wideSheet(rows, cols int) *domain.Sheet {
	t := &domain.Table{}
	for c := 0; c < cols; c++ {
		t.Columns = append(t.Columns, fmt.Sprintf("C%d", c))
	}
	for r := 0; r < rows; r++ {
		row := make([]any, cols)
		for c := range row {
			row[c] = fmt.Sprintf("r%dc%d", r, c)
		}
		t.Rows = append(t.Rows, row)
	}
	return &domain.Sheet{Name: "Wide", Table: t}
}

func TestApplyQuery_Search(t *testing.T) {
	sheet := &domain.Sheet{Name: "Sales", Table: salesTable()}

	view, err := ApplyQuery(sheet, domain.TableQuery{Search: "WEST"}, DefaultViewOptions())
	require.NoError(t, err)

	assert.Equal(t, 5, view.TotalRows)
	assert.Equal(t, 2, view.MatchedRows)
	assert.Equal(t, 2, view.DisplayedRows)
	assert.Equal(t, "West", view.Rows[0][0])

	// numbers are searched in their string form
	view, err = ApplyQuery(sheet, domain.TableQuery{Search: "40"}, DefaultViewOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, view.MatchedRows)
}

func TestApplyQuery_SearchMatchesHiddenColumns(t *testing.T) {
	sheet := &domain.Sheet{Name: "Sales", Table: salesTable()}

	view, err := ApplyQuery(sheet, domain.TableQuery{Search: "closed", Columns: []string{"Region"}}, DefaultViewOptions())
	require.NoError(t, err)

	assert.Equal(t, []string{"Region"}, view.Columns)
	assert.Equal(t, [][]any{{"West"}}, view.Rows)
}

func TestApplyQuery_NoMatch(t *testing.T) {
	sheet := &domain.Sheet{Name: "Sales", Table: salesTable()}

	view, err := ApplyQuery(sheet, domain.TableQuery{Search: "zzz"}, DefaultViewOptions())
	require.NoError(t, err)

	assert.Empty(t, view.Rows)
	assert.Equal(t, salesTable().Columns, view.Columns)
	assert.Equal(t, 0, view.DisplayedRows)
}

func TestApplyQuery_Columns(t *testing.T) {
	t.Run("defaults to first ten", func(t *testing.T) {
		view, err := ApplyQuery(wideSheet(3, 14), domain.TableQuery{}, DefaultViewOptions())
		require.NoError(t, err)
		assert.Len(t, view.Columns, 10)
		assert.Equal(t, "C9", view.Columns[9])
		assert.Equal(t, 14, view.TotalColumns)
	})

	t.Run("keeps selection order", func(t *testing.T) {
		view, err := ApplyQuery(wideSheet(2, 4), domain.TableQuery{Columns: []string{"C3", "C0"}}, DefaultViewOptions())
		require.NoError(t, err)
		assert.Equal(t, []string{"C3", "C0"}, view.Columns)
		assert.Equal(t, []any{"r0c3", "r0c0"}, view.Rows[0])
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := ApplyQuery(wideSheet(2, 4), domain.TableQuery{Columns: []string{"Nope"}}, DefaultViewOptions())
		assert.ErrorIs(t, err, domain.ErrUnknownColumn)
	})
}

func TestApplyQuery_RowLimit(t *testing.T) {
	tests := []struct {
		name  string
		rows  int
		limit int
		want  int
	}{
		{"default caps at 100", 250, 0, 100},
		{"default shows small tables whole", 30, 0, 30},
		{"explicit limit", 250, 25, 25},
		{"raised to the minimum", 250, 3, 10},
		{"minimum on a small table", 4, 1, 4},
		{"above total", 50, 500, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			view, err := ApplyQuery(wideSheet(tt.rows, 2), domain.TableQuery{Limit: tt.limit}, DefaultViewOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.want, view.DisplayedRows)
			assert.Equal(t, tt.rows, view.MatchedRows)
		})
	}
}
