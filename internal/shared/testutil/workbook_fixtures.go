package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// SheetFixture is one sheet of an in-memory workbook; the first row is the header.
// nil cells are left blank.
type SheetFixture struct {
	Name string
	Rows [][]any
}

// XLSXBytes renders the sheets as an .xlsx file, in the given order.
func XLSXBytes(t testing.TB, sheets ...SheetFixture) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, s := range sheets {
		if i == 0 {
			require.NoError(t, f.SetSheetName(f.GetSheetName(0), s.Name))
		} else {
			_, err := f.NewSheet(s.Name)
			require.NoError(t, err)
		}
		for r, row := range s.Rows {
			for c, v := range row {
				if v == nil {
					continue
				}
				cell, err := excelize.CoordinatesToCellName(c+1, r+1)
				require.NoError(t, err)
				require.NoError(t, f.SetCellValue(s.Name, cell, v))
			}
		}
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// DemandSheet is a small demand/supply sheet with an empty trailing row.
func DemandSheet() SheetFixture {
	return SheetFixture{
		Name: "Demand",
		Rows: [][]any{
			{"Region", "Demand_Qty", "Status"},
			{"East", 10, "Open"},
			{"West", nil, "Closed"},
			{nil, nil, nil},
		},
	}
}
