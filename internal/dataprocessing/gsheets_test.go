package dataprocessing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"sheetpulse/pkg/contracts/domain"
)

func newSheetsServer(t *testing.T, values map[string][][]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		switch {
		case strings.HasSuffix(path, "/v4/spreadsheets/missing"):
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"Requested entity was not found."}}`))
		case strings.Contains(path, "/values/"):
			title := path[strings.Index(path, "/values/")+len("/values/"):]
			title = strings.Trim(title, "'")
			_ = json.NewEncoder(w).Encode(map[string]any{
				"range":          title + "!A1:Z100",
				"majorDimension": "ROWS",
				"values":         values[title],
			})
		default:
			var sheets []map[string]any
			for _, title := range []string{"Demand", "Supply"} {
				sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"spreadsheetId": "abc", "sheets": sheets})
		}
	}))
}

func TestSheetsFetcher_Fetch(t *testing.T) {
	srv := newSheetsServer(t, map[string][][]any{
		"Demand": {{"Region", "Demand_Qty", "Status"}, {"East", 10, "Open"}, {"West", "", "Closed"}},
		"Supply": {{"Item", "Stock"}, {"Bolt", 4, true}},
	})
	defer srv.Close()

	ctx := context.Background()
	fetcher, err := NewSheetsFetcher(ctx,
		option.WithEndpoint(srv.URL+"/"),
		option.WithHTTPClient(srv.Client()),
	)
	require.NoError(t, err)

	raw, err := fetcher.Fetch(ctx, "1AbCdEfGhIjKlMnOp")
	require.NoError(t, err)
	require.Len(t, raw.Sheets, 2)

	demand := raw.Sheets[0]
	assert.Equal(t, "Demand", demand.Name)
	assert.Equal(t, []any{"Region", "Demand_Qty", "Status"}, demand.Header)
	assert.Equal(t, []any{"East", 10.0, "Open"}, demand.Rows[0])
	assert.Nil(t, demand.Rows[1][1])

	assert.Equal(t, "Supply", raw.Sheets[1].Name)
	assert.Equal(t, true, raw.Sheets[1].Rows[0][2])
}

func TestSheetsFetcher_NotFound(t *testing.T) {
	srv := newSheetsServer(t, nil)
	defer srv.Close()

	ctx := context.Background()
	fetcher, err := NewSheetsFetcher(ctx, option.WithEndpoint(srv.URL+"/"), option.WithHTTPClient(srv.Client()))
	require.NoError(t, err)

	_, err = fetcher.Fetch(ctx, "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrMalformedInput)
	assert.Contains(t, err.Error(), "spreadsheet not found")
}

func TestSheetRange(t *testing.T) {
	assert.Equal(t, "'Q1 Plan'", sheetRange("Q1 Plan"))
	assert.Equal(t, "'Bob''s'", sheetRange("Bob's"))
}
