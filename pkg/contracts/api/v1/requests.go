// Package api contains the HTTP API contract definitions, version v1.
package api

import (
	"sheetpulse/pkg/contracts/domain"
)

// TableRequest carries the table-view and export query string.
type TableRequest struct {
	Search  string   `json:"search" validate:"max=256"`
	Columns []string `json:"columns" validate:"max=1000,dive,required"`
	Limit   int      `json:"limit" validate:"min=0"`
	Format  string   `json:"format" validate:"omitempty,oneof=csv json xlsx"`
}

// Query converts the request into a domain query.
func (r TableRequest) Query() domain.TableQuery {
	return domain.TableQuery{Search: r.Search, Columns: r.Columns, Limit: r.Limit}
}

// ImportRequest asks for a Google Sheets spreadsheet to be loaded as the workbook.
type ImportRequest struct {
	SpreadsheetID string `json:"spreadsheet_id" validate:"required,min=10,max=128,spreadsheetid"`
}
