package dataprocessing

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"sheetpulse/pkg/contracts/domain"
)

// Format identifies a spreadsheet container.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatCSV  Format = "csv"
)

const (
	mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimeXLS  = "application/vnd.ms-excel"
	mimeZip  = "application/zip"
	mimeOLE  = "application/x-ole-storage"
	mimeCSV  = "text/csv"
	mimeText = "text/plain"
)

// DetectFormat sniffs the content and uses the file extension to settle
// containers that sniffing alone cannot name.
func DetectFormat(filename string, data []byte) (Format, error) {
	if len(data) == 0 {
		return "", domain.NewMalformedInputError(filename, "file is empty", nil)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	mt := mimetype.Detect(data)

	switch {
	case isA(mt, mimeXLSX):
		return FormatXLSX, nil
	case isA(mt, mimeXLS):
		return FormatXLS, nil
	case isA(mt, mimeZip) && ext == ".xlsx":
		return FormatXLSX, nil
	case isA(mt, mimeOLE) && ext == ".xls":
		return FormatXLS, nil
	case isA(mt, mimeCSV):
		return FormatCSV, nil
	case isA(mt, mimeText) && ext == ".csv":
		return FormatCSV, nil
	}

	return "", domain.NewMalformedInputError(filename,
		fmt.Sprintf("unsupported content type %s", mt.String()), nil)
}

// isA reports whether mt or one of its parents is the given MIME type.
func isA(mt *mimetype.MIME, mime string) bool {
	for m := mt; m != nil; m = m.Parent() {
		if m.Is(mime) {
			return true
		}
	}
	return false
}

// Parse reads an uploaded spreadsheet into a raw workbook.
func Parse(filename string, data []byte) (*domain.RawWorkbook, Format, error) {
	format, err := DetectFormat(filename, data)
	if err != nil {
		return nil, "", err
	}

	var raw *domain.RawWorkbook
	switch format {
	case FormatXLSX:
		raw, err = parseXLSX(filename, data)
	case FormatXLS:
		raw, err = parseXLS(filename, data)
	case FormatCSV:
		raw, err = parseCSV(filename, data)
	}
	if err != nil {
		return nil, format, err
	}
	if len(raw.Sheets) == 0 {
		return nil, format, domain.NewMalformedInputError(filename, "workbook has no sheets", nil)
	}
	return raw, format, nil
}

// splitHeader turns reader rows into a raw sheet, first row as header.
func splitHeader(name string, rows [][]any) domain.RawSheet {
	sheet := domain.RawSheet{Name: name}
	if len(rows) == 0 {
		return sheet
	}
	sheet.Header = rows[0]
	sheet.Rows = rows[1:]
	return sheet
}
