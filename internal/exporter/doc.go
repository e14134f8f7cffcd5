// Package exporter writes filtered sheet views as downloadable files.
//
// Three formats are supported:
//
// CSV: header row plus records, no index column, optional UTF-8 BOM for Excel.
//
// JSON: an array of records with keys in column order, indented by two spaces.
//
// XLSX: a single-sheet workbook named after the source sheet.
//
// Example usage:
//
//	exp := exporter.New(exporter.Options{CSVBOM: true}, logger)
//	err := exp.Export(ctx, w, domain.ExportCSV, "Sheet1", view.Table())
//
// An empty table still produces a valid file: a header-only CSV, an empty
// JSON array, or a workbook holding just the header row.
package exporter
