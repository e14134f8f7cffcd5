package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"path/filepath"
	"strings"

	"sheetpulse/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV reads a delimited text file as a single sheet named after the file.
// A column whose every non-empty cell is a number is read as numbers.
func parseCSV(filename string, data []byte) (*domain.RawWorkbook, error) {
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, domain.NewMalformedInputError(filename, "unreadable csv", err)
	}

	width := 0
	for _, rec := range records {
		if len(rec) > width {
			width = len(rec)
		}
	}

	numeric := make([]bool, width)
	for c := 0; c < width; c++ {
		numeric[c] = csvColumnIsNumeric(records, c)
	}

	rows := make([][]any, len(records))
	for i, rec := range records {
		cells := make([]any, len(rec))
		for c, value := range rec {
			switch {
			case value == "":
				cells[c] = nil
			case i > 0 && numeric[c]:
				n, _ := ParseNumber(value)
				cells[c] = n
			default:
				cells[c] = value
			}
		}
		rows[i] = cells
	}

	return &domain.RawWorkbook{Sheets: []domain.RawSheet{splitHeader(csvSheetName(filename), rows)}}, nil
}

func csvColumnIsNumeric(records [][]string, col int) bool {
	seen := false
	for _, rec := range records[min(1, len(records)):] {
		if col >= len(rec) || rec[col] == "" {
			continue
		}
		if _, ok := ParseNumber(rec[col]); !ok {
			return false
		}
		seen = true
	}
	return seen
}

func csvSheetName(filename string) string {
	base := filepath.Base(filename)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	if name == "" || name == "." {
		return "Sheet1"
	}
	return name
}
