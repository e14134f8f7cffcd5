// Package dataprocessing turns uploaded spreadsheets into cleaned tables and
// derives the column roles and aggregates the dashboard is built from.
//
// # Data Flow
//
//	bytes → Parse (xlsx | xls | csv) → RawWorkbook → Normalize → Workbook
//	Table → Classify → ColumnRoleMap → aggregates (grouped sums, value counts, correlation)
//
// Google Sheets spreadsheets enter the same flow through SheetsFetcher.
//
// # Cell values
//
// Raw cells are nil, string, float64, bool or time.Time. After Normalize no nil
// or time.Time remains: absent cells become "" and date/time cells are rendered
// with domain.DateTimeLayout. Empty strings count as absent everywhere below:
// they never disqualify a numeric column and are skipped by every aggregate.
//
// # Error Handling
//
// Only whole-input failures are errors (*domain.MalformedInputError). A cell
// that cannot be interpreted degrades to its raw string form.
package dataprocessing
