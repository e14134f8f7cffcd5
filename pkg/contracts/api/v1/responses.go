package api

import (
	"sheetpulse/pkg/contracts/domain"
)

// TableResponse is a table view with its records.
type TableResponse struct {
	*domain.TableView
	Records []domain.Record `json:"records"`
}

// NewTableResponse builds the response body for a view.
func NewTableResponse(v *domain.TableView) TableResponse {
	return TableResponse{TableView: v, Records: v.Table().Records()}
}

// SheetListResponse lists the sheets of the held workbook.
type SheetListResponse struct {
	Sheets []SheetInfo `json:"sheets"`
}

// SheetInfo summarises one sheet.
type SheetInfo struct {
	Name    string   `json:"name"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Empty   bool     `json:"empty"`
}

// RolesResponse carries classifier output for one sheet.
type RolesResponse struct {
	Sheet   string                `json:"sheet"`
	Roles   domain.ColumnRoleMap  `json:"roles"`
	Buckets domain.KeywordBuckets `json:"buckets"`
}
