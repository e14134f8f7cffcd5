package dashboard

import (
	"fmt"
	"strings"

	"sheetpulse/pkg/contracts/domain"
)

// preferredSheetNames are tried, in order, before falling back to the first non-empty sheet.
var preferredSheetNames = []string{"sheet1", "data", "main", "dashboard", "summary"}

// SelectSheet picks the sheet a dashboard is built from. A requested name must exist;
// otherwise a conventionally named sheet wins, then the first sheet with records.
func SelectSheet(wb *domain.Workbook, requested string) (*domain.Sheet, error) {
	if wb == nil || len(wb.Sheets) == 0 {
		return nil, domain.ErrNoWorkbook
	}

	if requested != "" {
		s, ok := wb.Sheet(requested)
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrSheetNotFound, requested)
		}
		return s, nil
	}

	for _, name := range preferredSheetNames {
		for _, s := range wb.Sheets {
			if strings.ToLower(s.Name) == name {
				return s, nil
			}
		}
	}
	for _, s := range wb.Sheets {
		if s.Table.NumRows() > 0 {
			return s, nil
		}
	}
	return wb.Sheets[0], nil
}
