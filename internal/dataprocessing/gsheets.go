package dataprocessing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"sheetpulse/pkg/contracts/domain"
)

const sheetsFetchConcurrency = 4

// SheetsFetcher reads a Google Sheets spreadsheet into a raw workbook.
type SheetsFetcher struct {
	service *sheets.Service
}

// NewSheetsFetcher creates a fetcher. Callers pass option.WithAPIKey for public
// spreadsheets or credentials options for private ones.
func NewSheetsFetcher(ctx context.Context, opts ...option.ClientOption) (*SheetsFetcher, error) {
	srv, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}
	return &SheetsFetcher{service: srv}, nil
}

// Fetch reads every sheet of the spreadsheet with unformatted values, sheets in tab order.
func (f *SheetsFetcher) Fetch(ctx context.Context, spreadsheetID string) (*domain.RawWorkbook, error) {
	ss, err := f.service.Spreadsheets.Get(spreadsheetID).
		Fields("sheets.properties.title").
		Context(ctx).
		Do()
	if err != nil {
		return nil, sheetsError(spreadsheetID, err)
	}

	titles := make([]string, 0, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			titles = append(titles, s.Properties.Title)
		}
	}
	if len(titles) == 0 {
		return nil, domain.NewMalformedInputError(spreadsheetID, "spreadsheet has no sheets", nil)
	}

	raw := &domain.RawWorkbook{Sheets: make([]domain.RawSheet, len(titles))}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sheetsFetchConcurrency)
	for i, title := range titles {
		g.Go(func() error {
			resp, err := f.service.Spreadsheets.Values.Get(spreadsheetID, sheetRange(title)).
				ValueRenderOption("UNFORMATTED_VALUE").
				DateTimeRenderOption("FORMATTED_STRING").
				Context(gctx).
				Do()
			if err != nil {
				return sheetsError(spreadsheetID, err)
			}
			raw.Sheets[i] = splitHeader(title, sheetValues(resp.Values))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return raw, nil
}

// sheetRange addresses a whole sheet in A1 notation.
func sheetRange(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func sheetValues(values [][]interface{}) [][]any {
	rows := make([][]any, len(values))
	for i, row := range values {
		cells := make([]any, len(row))
		for j, v := range row {
			switch x := v.(type) {
			case string:
				if x != "" {
					cells[j] = x
				}
			case float64, bool:
				cells[j] = x
			case nil:
			default:
				cells[j] = CellString(x)
			}
		}
		rows[i] = cells
	}
	return rows
}

func sheetsError(id string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) && gerr.Code == http.StatusNotFound {
		return domain.NewMalformedInputError(id, "spreadsheet not found", err)
	}
	if errors.As(err, &gerr) && (gerr.Code == http.StatusBadRequest || gerr.Code == http.StatusForbidden) {
		return domain.NewMalformedInputError(id, "spreadsheet could not be read", err)
	}
	return fmt.Errorf("failed to fetch spreadsheet %s: %w", id, err)
}
