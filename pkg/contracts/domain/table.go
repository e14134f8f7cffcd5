package domain

import "time"

// ExportFormat names a download format.
type ExportFormat string

const (
	ExportCSV  ExportFormat = "csv"
	ExportJSON ExportFormat = "json"
	ExportXLSX ExportFormat = "xlsx"
)

// TableQuery selects a view over one sheet.
// A zero Limit means the default cap; Columns empty means the default selection.
type TableQuery struct {
	Search  string
	Columns []string
	Limit   int
}

// TableView is a filtered, projected and capped table.
type TableView struct {
	Sheet           string   `json:"sheet"`
	Columns         []string `json:"columns"`
	Rows            [][]any  `json:"-"`
	TotalRows       int      `json:"total_rows"`
	MatchedRows     int      `json:"matched_rows"`
	DisplayedRows   int      `json:"displayed_rows"`
	TotalColumns    int      `json:"total_columns"`
	SelectedColumns int      `json:"selected_columns"`
}

// Table returns the view as a table.
func (v *TableView) Table() *Table {
	return &Table{Columns: v.Columns, Rows: v.Rows}
}

// UploadInfo describes the workbook currently held in application state.
type UploadInfo struct {
	ID           string    `json:"id"`
	FileName     string    `json:"file_name"`
	Format       string    `json:"format"`
	SheetNames   []string  `json:"sheet_names"`
	Sheets       int       `json:"sheets_processed"`
	TotalRecords int       `json:"total_records"`
	LoadedAt     time.Time `json:"loaded_at"`
}
