package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"sheetpulse/pkg/contracts/domain"
)

var contentTypes = map[domain.ExportFormat]string{
	domain.ExportCSV:  "text/csv; charset=utf-8",
	domain.ExportJSON: "application/json",
	domain.ExportXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// ParseFormat validates a user supplied format name.
func ParseFormat(s string) (domain.ExportFormat, error) {
	f := domain.ExportFormat(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, s)
	}
	return f, nil
}

// ContentType returns the MIME type served for a format.
func ContentType(f domain.ExportFormat) string {
	return contentTypes[f]
}

// FileName returns the download name for a filtered sheet.
func FileName(sheet string, f domain.ExportFormat) string {
	return fmt.Sprintf("%s_filtered_data.%s", sanitizeName(sheet), f)
}

func sanitizeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "sheet"
	}
	return s
}

// formatCell renders a cleaned cell for text output.
func formatCell(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return formatBool(x)
	case time.Time:
		return x.Format(domain.DateTimeLayout)
	default:
		return fmt.Sprint(x)
	}
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
