package dataprocessing

import (
	"testing"

	"github.com/montanaflynn/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheetpulse/pkg/contracts/domain"
)

func TestClassify_DemandScenario(t *testing.T) {
	table := NormalizeSheet(demandRaw())
	roles := Classify(table)

	require.Len(t, roles.Columns, 3)

	qty := roles.Columns[1]
	assert.Equal(t, domain.TypeNumeric, qty.Type)
	assert.Equal(t, domain.KeywordDemand, qty.Keyword)
	mean, err := stats.Mean(NumericValues(table, qty.Index))
	require.NoError(t, err)
	assert.Equal(t, 10.0, mean)

	status := roles.Columns[2]
	assert.Equal(t, domain.TypeCategorical, status.Type)
	assert.Equal(t, domain.KeywordTagPipeline, status.Keyword)

	region := roles.Columns[0]
	assert.Equal(t, domain.TypeCategorical, region.Type)
	assert.Equal(t, domain.KeywordOther, region.Keyword)
}

func TestTypeRoleOf(t *testing.T) {
	tests := []struct {
		name   string
		values []any
		want   domain.TypeRole
	}{
		{"numbers with gaps", []any{1.0, "", 2.5}, domain.TypeNumeric},
		{"numeric strings", []any{"12", " 3.5 ", ""}, domain.TypeNumeric},
		{"mixed number and text", []any{10.0, "N/A"}, domain.TypeCategorical},
		{"text", []any{"a", "b"}, domain.TypeCategorical},
		{"booleans", []any{true, false}, domain.TypeNone},
		{"all empty", []any{"", ""}, domain.TypeNone},
		{"nan text is not a number", []any{"NaN", 1.0}, domain.TypeCategorical},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeRoleOf(tt.values))
		})
	}
}

func TestNumericColumnsOnlyHoldNumbersOrEmpty(t *testing.T) {
	table := &domain.Table{
		Columns: []string{"Qty", "Cost", "Name"},
		Rows: [][]any{
			{1.0, "4.5", "a"},
			{"", "", "b"},
			{3.0, "7", "c"},
		},
	}
	for _, c := range Classify(table).Numeric() {
		for _, v := range table.Column(c.Index) {
			_, ok := ParseNumber(v)
			assert.True(t, ok || v == "", "column %s value %v", c.Label, v)
		}
	}
}

func TestIsDateLike(t *testing.T) {
	tests := []struct {
		name   string
		label  string
		values []any
		want   bool
	}{
		{"formatted timestamps", "Order Date", []any{"2024-01-15 00:00:00", ""}, true},
		{"iso dates", "Delivery_Time", []any{"2024-03-01"}, true},
		{"one parseable value suffices", "Date", []any{"soon", "2024-03-01"}, true},
		{"unparseable strings", "Ship Date", []any{"not a date", "tbd"}, false},
		{"numbers are not dates", "Date", []any{45292.0}, false},
		{"label without date or time", "Created", []any{"2024-01-01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDateLike(tt.label, tt.values))
		})
	}
}

func TestKeywordRoleOf(t *testing.T) {
	tests := []struct {
		label string
		want  domain.KeywordRole
	}{
		{"Customer Demand", domain.KeywordDemand},
		{"Purchase ORDER", domain.KeywordDemand},
		{"Stock on hand", domain.KeywordSupply},
		{"Inventory", domain.KeywordSupply},
		{"Pipeline Stage", domain.KeywordTagPipeline},
		{"progress %", domain.KeywordTagPipeline},
		{"Demand Status", domain.KeywordDemand},
		{"Supply Phase", domain.KeywordSupply},
		{"Region", domain.KeywordOther},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, KeywordRoleOf(tt.label))
		})
	}
}

func TestPipelineStatusColumn(t *testing.T) {
	t.Run("label match", func(t *testing.T) {
		roles := Classify(&domain.Table{
			Columns: []string{"Region", "Qty", "Deal State"},
			Rows:    [][]any{{"East", 1.0, "Won"}},
		})
		col, generic, ok := PipelineStatusColumn(roles)
		require.True(t, ok)
		assert.False(t, generic)
		assert.Equal(t, "Deal State", col.Label)
	})

	t.Run("falls back to first categorical", func(t *testing.T) {
		roles := Classify(&domain.Table{
			Columns: []string{"Qty", "Region"},
			Rows:    [][]any{{1.0, "East"}},
		})
		col, generic, ok := PipelineStatusColumn(roles)
		require.True(t, ok)
		assert.True(t, generic)
		assert.Equal(t, "Region", col.Label)
	})

	t.Run("none", func(t *testing.T) {
		roles := Classify(&domain.Table{Columns: []string{"Qty"}, Rows: [][]any{{1.0}}})
		_, _, ok := PipelineStatusColumn(roles)
		assert.False(t, ok)
	})
}
