package dataprocessing

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"sheetpulse/pkg/contracts/domain"
)

// Normalize cleans every sheet of raw independently. raw is not modified.
func Normalize(raw *domain.RawWorkbook) (*domain.Workbook, error) {
	if raw == nil {
		return nil, domain.NewMalformedInputError("", "no workbook", nil)
	}

	wb := &domain.Workbook{Sheets: make([]*domain.Sheet, 0, len(raw.Sheets))}
	for _, s := range raw.Sheets {
		wb.Sheets = append(wb.Sheets, &domain.Sheet{Name: s.Name, Table: NormalizeSheet(s)})
	}
	return wb, nil
}

// NormalizeSheet applies the cleaning steps to one sheet:
// empty rows and columns dropped, labels trimmed, absent cells set to "",
// date/time values rendered as strings.
func NormalizeSheet(s domain.RawSheet) *domain.Table {
	width := len(s.Header)
	rows := make([][]any, 0, len(s.Rows))
	for _, row := range s.Rows {
		if len(row) > width {
			width = len(row)
		}
		if !allAbsent(row) {
			rows = append(rows, row)
		}
	}

	keep := make([]int, 0, width)
	for c := 0; c < width; c++ {
		for _, row := range rows {
			if c < len(row) && !IsAbsent(row[c]) {
				keep = append(keep, c)
				break
			}
		}
	}

	columns := make([]string, len(keep))
	for i, c := range keep {
		var h any
		if c < len(s.Header) {
			h = s.Header[c]
		}
		columns[i] = columnLabel(h, c)
	}

	cleaned := make([][]any, len(rows))
	for r, row := range rows {
		cells := make([]any, len(keep))
		for i, c := range keep {
			var v any
			if c < len(row) {
				v = row[c]
			}
			cells[i] = cleanCell(v)
		}
		cleaned[r] = cells
	}

	for i := range keep {
		renderDateColumn(cleaned, i)
	}

	return &domain.Table{Columns: columns, Rows: cleaned}
}

func allAbsent(row []any) bool {
	for _, v := range row {
		if !IsAbsent(v) {
			return false
		}
	}
	return true
}

// columnLabel stringifies a header cell. A label that is blank after trimming
// takes the reader's positional name.
func columnLabel(h any, pos int) string {
	label := strings.TrimSpace(norm.NFC.String(CellString(h)))
	if label == "" {
		return fmt.Sprintf("Unnamed: %d", pos)
	}
	return label
}

func cleanCell(v any) any {
	switch x := v.(type) {
	case nil:
		return ""
	case string, bool, time.Time:
		return x
	case float64:
		if math.IsNaN(x) {
			return ""
		}
		return x
	}
	if f, ok := ParseNumber(v); ok {
		return f
	}
	return CellString(v)
}

// renderDateColumn formats a column of date/time values. A column mixing
// dates with other values is converted to strings throughout.
func renderDateColumn(rows [][]any, col int) {
	dates, others := 0, 0
	for _, row := range rows {
		switch row[col].(type) {
		case time.Time:
			dates++
		default:
			if !IsAbsent(row[col]) {
				others++
			}
		}
	}
	if dates == 0 {
		return
	}
	for _, row := range rows {
		if others == 0 {
			if t, ok := row[col].(time.Time); ok {
				row[col] = t.Format(domain.DateTimeLayout)
			}
			continue
		}
		row[col] = CellString(row[col])
	}
}
