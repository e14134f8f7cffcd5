package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// DateTimeLayout is the fixed rendering used for every date/time cell after normalization.
const DateTimeLayout = "2006-01-02 15:04:05"

// RawSheet is one sheet as produced by a spreadsheet reader.
// Cells are nil (absent), string, float64, bool or time.Time. Rows may be ragged.
type RawSheet struct {
	Name   string
	Header []any
	Rows   [][]any
}

// RawWorkbook is the reader output: sheets in source order.
type RawWorkbook struct {
	Sheets []RawSheet
}

// Table is a cleaned sheet. Columns keeps source order and may hold duplicate labels;
// Rows are positional and every row has len(Columns) cells.
type Table struct {
	Columns []string
	Rows    [][]any
}

// NumRows returns the number of records in the table.
func (t *Table) NumRows() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// NumColumns returns the number of columns in the table.
func (t *Table) NumColumns() int {
	if t == nil {
		return 0
	}
	return len(t.Columns)
}

// ColumnIndex returns the position of the first column with the given label, or -1.
func (t *Table) ColumnIndex(label string) int {
	for i, c := range t.Columns {
		if c == label {
			return i
		}
	}
	return -1
}

// Column returns the values of column i in row order.
func (t *Table) Column(i int) []any {
	values := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		values[r] = row[i]
	}
	return values
}

// Record returns row i as a label-keyed record.
func (t *Table) Record(i int) Record {
	return Record{Columns: t.Columns, Values: t.Rows[i]}
}

// Records returns every row as a record, in row order.
func (t *Table) Records() []Record {
	records := make([]Record, len(t.Rows))
	for i := range t.Rows {
		records[i] = t.Record(i)
	}
	return records
}

// MarshalJSON renders the table as an array of records.
func (t *Table) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, row := range t.Rows {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeObject(&buf, t.Columns, row); err != nil {
			return nil, err
		}
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// Record is one row keyed by column label.
// When labels repeat, the label keeps its first position and carries the last value.
type Record struct {
	Columns []string
	Values  []any
}

// Get returns the value of the last column carrying label.
func (r Record) Get(label string) (any, bool) {
	for i := len(r.Columns) - 1; i >= 0; i-- {
		if r.Columns[i] == label {
			return r.Values[i], true
		}
	}
	return nil, false
}

// MarshalJSON renders the record as an object with keys in column order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := writeObject(&buf, r.Columns, r.Values); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Sheet is a named cleaned table.
type Sheet struct {
	Name  string
	Table *Table
}

// Workbook is the normalized result of one upload, sheets in source order.
type Workbook struct {
	Sheets []*Sheet
}

// Sheet looks a sheet up by exact name.
func (w *Workbook) Sheet(name string) (*Sheet, bool) {
	if w == nil {
		return nil, false
	}
	for _, s := range w.Sheets {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// SheetNames returns sheet names in source order.
func (w *Workbook) SheetNames() []string {
	if w == nil {
		return nil
	}
	names := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		names[i] = s.Name
	}
	return names
}

// TotalRecords sums the record count of every sheet.
func (w *Workbook) TotalRecords() int {
	if w == nil {
		return 0
	}
	total := 0
	for _, s := range w.Sheets {
		total += s.Table.NumRows()
	}
	return total
}

// MarshalJSON renders the workbook as an object keyed by sheet name in source order.
func (w *Workbook) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, s := range w.Sheets {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(s.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		table, err := s.Table.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", s.Name, err)
		}
		buf.Write(table)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeObject(buf *bytes.Buffer, columns []string, values []any) error {
	last := make(map[string]int, len(columns))
	for i, c := range columns {
		last[c] = i
	}
	written := make(map[string]bool, len(columns))

	buf.WriteByte('{')
	first := true
	for _, c := range columns {
		if written[c] {
			continue
		}
		written[c] = true
		if !first {
			buf.WriteByte(',')
		}
		first = false

		key, err := json.Marshal(c)
		if err != nil {
			return err
		}
		val, err := json.Marshal(JSONValue(values[last[c]]))
		if err != nil {
			return fmt.Errorf("column %q: %w", c, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return nil
}

// JSONValue maps a cell to a JSON-encodable primitive, stringifying anything else.
func JSONValue(v any) any {
	switch x := v.(type) {
	case nil, string, bool, int, int64:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case time.Time:
		return x.Format(DateTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}
