// Package shared holds helpers used by more than one layer of the service.
//
// The testutil subpackage provides a buffered slog handler for asserting log
// output and in-memory spreadsheet fixtures built with excelize.
package shared
