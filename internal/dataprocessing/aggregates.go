package dataprocessing

import (
	"errors"
	"sort"

	"github.com/montanaflynn/stats"

	"sheetpulse/pkg/contracts/domain"
)

// ErrNotEnoughNumericColumns is returned when a correlation matrix has fewer than two inputs.
var ErrNotEnoughNumericColumns = errors.New("need at least 2 numeric columns")

// GroupTotal is the summed value of one category.
type GroupTotal struct {
	Key   string  `json:"key"`
	Total float64 `json:"total"`
}

// ValueCount is the frequency of one category value.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// CorrelationMatrix is a square Pearson matrix; nil entries are undefined.
type CorrelationMatrix struct {
	Labels []string     `json:"labels"`
	Values [][]*float64 `json:"values"`
}

// NumericValues returns the numbers in column col, skipping empty cells.
func NumericValues(t *domain.Table, col int) stats.Float64Data {
	out := make(stats.Float64Data, 0, len(t.Rows))
	for _, row := range t.Rows {
		if f, ok := ParseNumber(row[col]); ok {
			out = append(out, f)
		}
	}
	return out
}

// GroupedSum sums numCol per distinct value of catCol and keeps the limit
// largest totals, descending. Ties keep key order.
func GroupedSum(t *domain.Table, catCol, numCol, limit int) []GroupTotal {
	totals := make(map[string]float64)
	for _, row := range t.Rows {
		key := CellString(row[catCol])
		if _, seen := totals[key]; !seen {
			totals[key] = 0
		}
		if f, ok := ParseNumber(row[numCol]); ok {
			totals[key] += f
		}
	}

	groups := make([]GroupTotal, 0, len(totals))
	for k, v := range totals {
		groups = append(groups, GroupTotal{Key: k, Total: v})
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Key < groups[j].Key })
	sort.SliceStable(groups, func(i, j int) bool { return groups[i].Total > groups[j].Total })

	if limit > 0 && len(groups) > limit {
		groups = groups[:limit]
	}
	return groups
}

// ValueCounts counts each distinct value of col, most frequent first; ties keep
// first-appearance order. A limit of zero keeps every value.
func ValueCounts(t *domain.Table, col, limit int) []ValueCount {
	index := make(map[string]int)
	var counts []ValueCount
	for _, row := range t.Rows {
		key := CellString(row[col])
		i, seen := index[key]
		if !seen {
			i = len(counts)
			index[key] = i
			counts = append(counts, ValueCount{Value: key})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })

	if limit > 0 && len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

// Correlation computes pairwise Pearson coefficients between the given columns,
// each pair over the rows where both cells are numbers.
func Correlation(t *domain.Table, cols []int) (*CorrelationMatrix, error) {
	if len(cols) < 2 {
		return nil, ErrNotEnoughNumericColumns
	}

	m := &CorrelationMatrix{
		Labels: make([]string, len(cols)),
		Values: make([][]*float64, len(cols)),
	}
	for i, a := range cols {
		m.Labels[i] = t.Columns[a]
		m.Values[i] = make([]*float64, len(cols))
	}
	for i, a := range cols {
		for j := i; j < len(cols); j++ {
			r := pearson(t, a, cols[j])
			m.Values[i][j] = r
			m.Values[j][i] = r
		}
	}
	return m, nil
}

func pearson(t *domain.Table, a, b int) *float64 {
	var xs, ys stats.Float64Data
	for _, row := range t.Rows {
		x, okX := ParseNumber(row[a])
		y, okY := ParseNumber(row[b])
		if okX && okY {
			xs = append(xs, x)
			ys = append(ys, y)
		}
	}
	if len(xs) < 2 {
		return nil
	}
	sx, _ := stats.StandardDeviationPopulation(xs)
	sy, _ := stats.StandardDeviationPopulation(ys)
	if sx == 0 || sy == 0 {
		return nil
	}
	r, err := stats.Pearson(xs, ys)
	if err != nil {
		return nil
	}
	return &r
}

// Describe summarises a numeric column. ok is false when it holds no numbers.
func Describe(t *domain.Table, col int) (domain.NumericSummary, bool) {
	values := NumericValues(t, col)
	if len(values) == 0 {
		return domain.NumericSummary{Column: t.Columns[col]}, false
	}
	mean, _ := stats.Mean(values)
	minV, _ := stats.Min(values)
	maxV, _ := stats.Max(values)
	median, _ := stats.Median(values)
	std := 0.0
	if len(values) > 1 {
		std, _ = stats.StandardDeviationSample(values)
	}
	return domain.NumericSummary{
		Column: t.Columns[col],
		Count:  len(values),
		Mean:   mean,
		Std:    std,
		Min:    minV,
		Median: median,
		Max:    maxV,
	}, true
}

// MissingValues counts empty cells across the table.
func MissingValues(t *domain.Table) int {
	n := 0
	for _, row := range t.Rows {
		for _, v := range row {
			if IsAbsent(v) {
				n++
			}
		}
	}
	return n
}

// Summarize builds table-level summary statistics from a classified table.
func Summarize(t *domain.Table, roles domain.ColumnRoleMap) domain.SummaryStats {
	s := domain.SummaryStats{
		TotalRows:     t.NumRows(),
		TotalColumns:  t.NumColumns(),
		MissingValues: MissingValues(t),
		ColumnTypes:   make(map[string]string, len(roles.Columns)),
		Numeric:       []domain.NumericSummary{},
	}
	for _, c := range roles.Columns {
		s.ColumnTypes[c.Label] = string(c.Type)
		switch c.Type {
		case domain.TypeNumeric:
			s.NumericColumns++
			if d, ok := Describe(t, c.Index); ok {
				s.Numeric = append(s.Numeric, d)
			}
		case domain.TypeCategorical:
			s.CategoricalColumns++
		}
	}
	return s
}
