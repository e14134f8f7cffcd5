package exporter

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/xuri/excelize/v2"

	"sheetpulse/pkg/contracts/domain"
)

const maxSheetNameLen = 31

// WriteXLSX writes t to a single-sheet workbook.
func WriteXLSX(w io.Writer, sheet string, t *domain.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	name := xlsxSheetName(sheet)
	if err := f.SetSheetName("Sheet1", name); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	header := make([]any, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return fmt.Errorf("failed to write headers: %w", err)
	}

	for i, row := range t.Rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = xlsxValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &cells); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func xlsxValue(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil
		}
		return x
	case string, bool:
		return x
	default:
		return formatCell(x)
	}
}

// xlsxSheetName applies Excel's sheet naming limits.
func xlsxSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', '?', '*', ':', '[', ']':
			return '_'
		}
		return r
	}, strings.Trim(s, "' "))
	if s == "" {
		return "Sheet1"
	}
	if r := []rune(s); len(r) > maxSheetNameLen {
		s = string(r[:maxSheetNameLen])
	}
	return s
}
