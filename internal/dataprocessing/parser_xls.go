package dataprocessing

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"

	xls "github.com/extrame/xls"

	"sheetpulse/pkg/contracts/domain"
)

// parseXLS reads every sheet of a legacy BIFF workbook. The library renders
// cells as strings; numbers and built-in date formats are recovered from them.
func parseXLS(filename string, data []byte) (raw *domain.RawWorkbook, err error) {
	// the BIFF decoder panics on some truncated streams
	defer func() {
		if r := recover(); r != nil {
			raw = nil
			err = domain.NewMalformedInputError(filename, "corrupt xls workbook", fmt.Errorf("%v", r))
		}
	}()

	wb, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, domain.NewMalformedInputError(filename, "unreadable xls workbook", err)
	}

	raw = &domain.RawWorkbook{}
	for i := 0; i < wb.NumSheets(); i++ {
		sheet := wb.GetSheet(i)
		if sheet == nil {
			continue
		}

		rows := make([][]any, 0, int(sheet.MaxRow)+1)
		for r := 0; r <= int(sheet.MaxRow); r++ {
			row := sheet.Row(r)
			if row == nil {
				rows = append(rows, nil)
				continue
			}
			cells := make([]any, row.LastCol())
			for c := 0; c < row.LastCol(); c++ {
				cells[c] = xlsCell(row.Col(c))
			}
			rows = append(rows, cells)
		}
		raw.Sheets = append(raw.Sheets, splitHeader(sheet.Name, trimTrailingEmpty(rows)))
	}
	return raw, nil
}

func xlsCell(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	if num, err := strconv.ParseFloat(value, 64); err == nil {
		return num
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	return value
}

// trimTrailingEmpty drops trailing rows with no cells, as GetRows does for xlsx.
func trimTrailingEmpty(rows [][]any) [][]any {
	end := len(rows)
	for end > 0 && len(rows[end-1]) == 0 {
		end--
	}
	return rows[:end]
}
