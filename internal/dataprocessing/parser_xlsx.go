package dataprocessing

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetpulse/pkg/contracts/domain"
)

// parseXLSX reads every sheet of an Office Open XML workbook with typed cells.
func parseXLSX(filename string, data []byte) (*domain.RawWorkbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, domain.NewMalformedInputError(filename, "unreadable xlsx workbook", err)
	}
	defer f.Close()

	r := &xlsxReader{file: f, dateStyles: make(map[int]bool)}
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		r.date1904 = *props.Date1904
	}

	raw := &domain.RawWorkbook{}
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, domain.NewMalformedInputError(filename, "unreadable sheet "+strconv.Quote(name), err)
		}

		typed := make([][]any, len(rows))
		for i, row := range rows {
			cells := make([]any, len(row))
			for j, value := range row {
				cells[j] = r.cell(name, i, j, value)
			}
			typed[i] = cells
		}
		raw.Sheets = append(raw.Sheets, splitHeader(name, typed))
	}
	return raw, nil
}

type xlsxReader struct {
	file       *excelize.File
	date1904   bool
	dateStyles map[int]bool
}

// cell converts one raw cell value. Lookup failures fall back to the raw string.
func (r *xlsxReader) cell(sheet string, row, col int, value string) any {
	if value == "" {
		return nil
	}
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return value
	}
	kind, err := r.file.GetCellType(sheet, ref)
	if err != nil {
		return value
	}

	switch kind {
	case excelize.CellTypeBool:
		return value == "1" || strings.EqualFold(value, "true")
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula, excelize.CellTypeError:
		return value
	case excelize.CellTypeDate:
		if t, ok := ParseDate(value); ok {
			return t
		}
		return value
	}

	num, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return value
	}
	if r.isDateStyled(sheet, ref) {
		if t, err := excelize.ExcelDateToTime(num, r.date1904); err == nil {
			return t
		}
	}
	return num
}

func (r *xlsxReader) isDateStyled(sheet, ref string) bool {
	idx, err := r.file.GetCellStyle(sheet, ref)
	if err != nil || idx == 0 {
		return false
	}
	if known, ok := r.dateStyles[idx]; ok {
		return known
	}

	isDate := false
	if style, err := r.file.GetStyle(idx); err == nil {
		isDate = isDateNumFmt(style.NumFmt)
		if style.CustomNumFmt != nil {
			isDate = isDateFormatCode(*style.CustomNumFmt)
		}
	}
	r.dateStyles[idx] = isDate
	return isDate
}

// isDateNumFmt reports whether a built-in number format renders a date or time.
func isDateNumFmt(id int) bool {
	return (id >= 14 && id <= 22) || (id >= 45 && id <= 47)
}

// isDateFormatCode reports whether a custom format code contains date or time tokens
// outside quoted literals and bracketed sections.
func isDateFormatCode(code string) bool {
	var b strings.Builder
	inQuote, inBracket := false, false
	for _, ch := range strings.ToLower(code) {
		switch {
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '[':
			inBracket = true
		case ch == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(ch)
		}
	}
	plain := b.String()
	if strings.ContainsAny(plain, "#0?") && !strings.ContainsAny(plain, "ydh") {
		return false
	}
	return strings.ContainsAny(plain, "ydhs") || strings.Contains(plain, "mm")
}
