package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apierrors "sheetpulse/internal/errors"
	"sheetpulse/internal/middleware"
	"sheetpulse/internal/services"
	"sheetpulse/internal/shared/testutil"
	"sheetpulse/pkg/contracts/domain"
)

// MockWorkbookService is a mock implementation of WorkbookServiceInterface
type MockWorkbookService struct {
	mock.Mock
}

func (m *MockWorkbookService) Load(ctx context.Context, filename string, data []byte) (domain.UploadInfo, error) {
	args := m.Called(filename, data)
	return args.Get(0).(domain.UploadInfo), args.Error(1)
}

func (m *MockWorkbookService) Import(ctx context.Context, spreadsheetID string) (domain.UploadInfo, error) {
	args := m.Called(spreadsheetID)
	return args.Get(0).(domain.UploadInfo), args.Error(1)
}

func (m *MockWorkbookService) Status() (domain.UploadInfo, error) {
	args := m.Called()
	return args.Get(0).(domain.UploadInfo), args.Error(1)
}

func (m *MockWorkbookService) Workbook() (*domain.Workbook, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Workbook), args.Error(1)
}

func (m *MockWorkbookService) Sheet(name string) (*domain.Sheet, error) {
	args := m.Called(name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Sheet), args.Error(1)
}

func (m *MockWorkbookService) Dashboard(ctx context.Context, sheet string) (domain.Dashboard, error) {
	args := m.Called(sheet)
	return args.Get(0).(domain.Dashboard), args.Error(1)
}

func (m *MockWorkbookService) Roles(sheet string) (string, domain.ColumnRoleMap, error) {
	args := m.Called(sheet)
	return args.String(0), args.Get(1).(domain.ColumnRoleMap), args.Error(2)
}

func (m *MockWorkbookService) Table(sheet string, q domain.TableQuery) (*domain.TableView, error) {
	args := m.Called(sheet, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TableView), args.Error(1)
}

func (m *MockWorkbookService) Export(ctx context.Context, w io.Writer, sheet string, q domain.TableQuery, format domain.ExportFormat) (string, error) {
	args := m.Called(w, sheet, q, format)
	return args.String(0), args.Error(1)
}

func newTestRouter(t *testing.T, svc *MockWorkbookService) chi.Router {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	validator := middleware.NewRequestValidator(logger)
	errorHandler := apierrors.NewErrorHandler(logger, false)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/workbook", NewWorkbookHandler(svc, validator, errorHandler, 1<<20, logger).Routes())
		r.Group(NewViewHandler(svc, validator, errorHandler, logger).RegisterRoutes)
	})
	return r
}

func multipartBody(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func demandSheet() *domain.Sheet {
	return &domain.Sheet{
		Name: "Demand",
		Table: &domain.Table{
			Columns: []string{"Region", "Demand_Qty"},
			Rows:    [][]any{{"East", 10.0}, {"West", ""}},
		},
	}
}

func TestWorkbookHandler_Upload(t *testing.T) {
	content := []byte("Region,Demand_Qty\nEast,10\n")
	loaded := domain.UploadInfo{
		ID:           "u-1",
		FileName:     "demand.csv",
		Format:       "csv",
		SheetNames:   []string{"demand"},
		Sheets:       1,
		TotalRecords: 1,
		LoadedAt:     time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	tests := []struct {
		name         string
		field        string
		contentType  string
		setupMock    func(*MockWorkbookService)
		wantStatus   int
		wantContains string
	}{
		{
			name:  "successful upload",
			field: "file",
			setupMock: func(m *MockWorkbookService) {
				m.On("Load", "demand.csv", content).Return(loaded, nil)
			},
			wantStatus:   http.StatusOK,
			wantContains: `"file_name":"demand.csv"`,
		},
		{
			name:         "missing file field",
			field:        "upload",
			setupMock:    func(m *MockWorkbookService) {},
			wantStatus:   http.StatusBadRequest,
			wantContains: `Multipart field \"file\" is required`,
		},
		{
			name:         "wrong content type",
			field:        "file",
			contentType:  "text/plain",
			setupMock:    func(m *MockWorkbookService) {},
			wantStatus:   http.StatusUnsupportedMediaType,
			wantContains: "Unsupported content type",
		},
		{
			name:  "malformed workbook",
			field: "file",
			setupMock: func(m *MockWorkbookService) {
				m.On("Load", "demand.csv", content).Return(domain.UploadInfo{},
					fmt.Errorf("failed to load demand.csv: %w",
						domain.NewMalformedInputError("demand.csv", "no header row", nil)))
			},
			wantStatus:   http.StatusUnprocessableEntity,
			wantContains: apierrors.TypeMalformedWorkbook,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWorkbookService)
			tt.setupMock(svc)
			router := newTestRouter(t, svc)

			body, ct := multipartBody(t, tt.field, "demand.csv", content)
			if tt.contentType != "" {
				ct = tt.contentType
			}
			req := httptest.NewRequest(http.MethodPost, "/api/workbook/upload", body)
			req.Header.Set("Content-Type", ct)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantContains)
			if tt.wantStatus >= http.StatusBadRequest {
				assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestWorkbookHandler_Import(t *testing.T) {
	const id = "1BxiMVs0XRA5nFMdKvBdBZjgmUUqptlbs74OgvE2upms"

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockWorkbookService)
		wantStatus int
	}{
		{
			name: "imported",
			body: `{"spreadsheet_id":"` + id + `"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("Import", id).Return(domain.UploadInfo{ID: "u-2", Format: services.FormatGoogleSheets}, nil)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "invalid json",
			body:       `{"spreadsheet_id":`,
			setupMock:  func(m *MockWorkbookService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown field",
			body:       `{"id":"` + id + `"}`,
			setupMock:  func(m *MockWorkbookService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "id fails validation",
			body:       `{"spreadsheet_id":"short"}`,
			setupMock:  func(m *MockWorkbookService) {},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "import disabled",
			body: `{"spreadsheet_id":"` + id + `"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("Import", id).Return(domain.UploadInfo{}, apierrors.ErrImportDisabled)
			},
			wantStatus: http.StatusServiceUnavailable,
		},
		{
			name: "upstream failure",
			body: `{"spreadsheet_id":"` + id + `"}`,
			setupMock: func(m *MockWorkbookService) {
				m.On("Import", id).Return(domain.UploadInfo{},
					apierrors.NewNetworkError("google sheets import failed", errors.New("connection refused")))
			},
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWorkbookService)
			tt.setupMock(svc)
			router := newTestRouter(t, svc)

			req := httptest.NewRequest(http.MethodPost, "/api/workbook/import", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}

func TestWorkbookHandler_Reads(t *testing.T) {
	empty := &domain.Sheet{Name: "Notes", Table: &domain.Table{Columns: []string{}, Rows: [][]any{}}}
	wb := &domain.Workbook{Sheets: []*domain.Sheet{demandSheet(), empty}}

	tests := []struct {
		name       string
		path       string
		setupMock  func(*MockWorkbookService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "status without workbook",
			path: "/api/workbook/status",
			setupMock: func(m *MockWorkbookService) {
				m.On("Status").Return(domain.UploadInfo{}, domain.ErrNoWorkbook)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   apierrors.TypeNoWorkbook,
		},
		{
			name: "whole workbook keeps column order",
			path: "/api/workbook",
			setupMock: func(m *MockWorkbookService) {
				m.On("Workbook").Return(wb, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"Demand":[{"Region":"East","Demand_Qty":10},{"Region":"West","Demand_Qty":""}],"Notes":[]}`,
		},
		{
			name: "sheet list",
			path: "/api/workbook/sheets",
			setupMock: func(m *MockWorkbookService) {
				m.On("Workbook").Return(wb, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"sheets":[{"name":"Demand","rows":2,"columns":["Region","Demand_Qty"],"empty":false},{"name":"Notes","rows":0,"columns":[],"empty":true}]}`,
		},
		{
			name: "empty sheet is an empty array",
			path: "/api/workbook/sheets/Notes",
			setupMock: func(m *MockWorkbookService) {
				m.On("Sheet", "Notes").Return(empty, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name: "escaped sheet name",
			path: "/api/workbook/sheets/Q1%2F2026",
			setupMock: func(m *MockWorkbookService) {
				m.On("Sheet", "Q1/2026").Return(&domain.Sheet{Name: "Q1/2026", Table: &domain.Table{}}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `[]`,
		},
		{
			name: "missing sheet",
			path: "/api/workbook/sheets/Nope",
			setupMock: func(m *MockWorkbookService) {
				m.On("Sheet", "Nope").Return(nil, fmt.Errorf("%w: %q", domain.ErrSheetNotFound, "Nope"))
			},
			wantStatus: http.StatusNotFound,
			wantBody:   apierrors.TypeSheetNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWorkbookService)
			tt.setupMock(svc)
			router := newTestRouter(t, svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			} else {
				assert.Contains(t, rec.Body.String(), tt.wantBody)
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestViewHandler_Dashboard(t *testing.T) {
	svc := new(MockWorkbookService)
	svc.On("Dashboard", "Demand").Return(domain.Dashboard{
		Sheet: "Demand",
		KPIs:  []domain.KPI{{Label: "Total Records", Value: "2"}},
	}, nil)
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/dashboard?sheet=Demand", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Dashboard
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Demand", got.Sheet)
	assert.Equal(t, "Total Records", got.KPIs[0].Label)
	svc.AssertExpectations(t)
}

func TestViewHandler_Roles(t *testing.T) {
	roles := domain.ColumnRoleMap{Columns: []domain.ColumnRole{
		{Label: "Region", Index: 0, Type: domain.TypeCategorical, Keyword: domain.KeywordOther},
		{Label: "Demand_Qty", Index: 1, Type: domain.TypeNumeric, Keyword: domain.KeywordDemand},
	}}
	svc := new(MockWorkbookService)
	svc.On("Roles", "").Return("Demand", roles, nil)
	router := newTestRouter(t, svc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/roles", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Sheet   string                `json:"sheet"`
		Buckets domain.KeywordBuckets `json:"buckets"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Demand", got.Sheet)
	assert.Equal(t, []string{"Demand_Qty"}, got.Buckets.Demand)
	assert.Equal(t, []string{"Region"}, got.Buckets.Other)
}

func TestViewHandler_Table(t *testing.T) {
	view := &domain.TableView{
		Sheet:           "Demand",
		Columns:         []string{"Region"},
		Rows:            [][]any{{"West"}},
		TotalRows:       2,
		MatchedRows:     1,
		DisplayedRows:   1,
		TotalColumns:    2,
		SelectedColumns: 1,
	}

	tests := []struct {
		name       string
		query      string
		setupMock  func(*MockWorkbookService)
		wantStatus int
		wantBody   string
	}{
		{
			name:  "search and projection",
			query: "?sheet=Demand&search=+west+&columns=Region&limit=25",
			setupMock: func(m *MockWorkbookService) {
				m.On("Table", "Demand", domain.TableQuery{Search: "west", Columns: []string{"Region"}, Limit: 25}).Return(view, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `"records":[{"Region":"West"}]`,
		},
		{
			name:       "non numeric limit",
			query:      "?limit=lots",
			setupMock:  func(m *MockWorkbookService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   "limit must be a valid integer",
		},
		{
			name:  "unknown column",
			query: "?columns=Nope",
			setupMock: func(m *MockWorkbookService) {
				m.On("Table", "", domain.TableQuery{Columns: []string{"Nope"}}).Return(nil,
					fmt.Errorf("%w: %q", domain.ErrUnknownColumn, "Nope"))
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   apierrors.TypeUnknownColumn,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWorkbookService)
			tt.setupMock(svc)
			router := newTestRouter(t, svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/table"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}

// brokenPipeWriter is a ResponseWriter whose client has gone away.
type brokenPipeWriter struct {
	*httptest.ResponseRecorder
}

func (w brokenPipeWriter) Write([]byte) (int, error) {
	return 0, errors.New("write: broken pipe")
}

func TestViewHandler_ExportLogsWriteFailure(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	svc := new(MockWorkbookService)
	svc.On("Export", mock.Anything, "", domain.TableQuery{}, domain.ExportCSV).
		Run(func(args mock.Arguments) {
			io.WriteString(args.Get(0).(io.Writer), "Region\nWest\n")
		}).
		Return("Demand_filtered_data.csv", nil)

	r := chi.NewRouter()
	r.Group(NewViewHandler(svc, middleware.NewRequestValidator(logger), apierrors.NewErrorHandler(logger, false), logger).RegisterRoutes)

	w := brokenPipeWriter{httptest.NewRecorder()}
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/table/export", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	testutil.AssertLogContains(t, handler, slog.LevelDebug, "export write failed")
	svc.AssertExpectations(t)
}

func TestViewHandler_Export(t *testing.T) {
	tests := []struct {
		name            string
		query           string
		setupMock       func(*MockWorkbookService)
		wantStatus      int
		wantContentType string
		wantDisposition string
		wantBody        string
	}{
		{
			name:  "csv by default",
			query: "?sheet=Demand",
			setupMock: func(m *MockWorkbookService) {
				m.On("Export", mock.Anything, "Demand", domain.TableQuery{}, domain.ExportCSV).
					Run(func(args mock.Arguments) {
						io.WriteString(args.Get(0).(io.Writer), "Region\nWest\n")
					}).
					Return("Demand_filtered_data.csv", nil)
			},
			wantStatus:      http.StatusOK,
			wantContentType: "text/csv; charset=utf-8",
			wantDisposition: `attachment; filename="Demand_filtered_data.csv"`,
			wantBody:        "Region\nWest\n",
		},
		{
			name:  "json",
			query: "?format=json&search=west",
			setupMock: func(m *MockWorkbookService) {
				m.On("Export", mock.Anything, "", domain.TableQuery{Search: "west"}, domain.ExportJSON).
					Run(func(args mock.Arguments) {
						io.WriteString(args.Get(0).(io.Writer), "[]")
					}).
					Return("Sheet1_filtered_data.json", nil)
			},
			wantStatus:      http.StatusOK,
			wantContentType: "application/json",
			wantDisposition: `attachment; filename="Sheet1_filtered_data.json"`,
			wantBody:        "[]",
		},
		{
			name:            "unsupported format",
			query:           "?format=pdf",
			setupMock:       func(m *MockWorkbookService) {},
			wantStatus:      http.StatusBadRequest,
			wantContentType: "application/problem+json",
		},
		{
			name:  "no workbook",
			query: "?format=xlsx",
			setupMock: func(m *MockWorkbookService) {
				m.On("Export", mock.Anything, "", domain.TableQuery{}, domain.ExportXLSX).Return("", domain.ErrNoWorkbook)
			},
			wantStatus:      http.StatusNotFound,
			wantContentType: "application/problem+json",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockWorkbookService)
			tt.setupMock(svc)
			router := newTestRouter(t, svc)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/table/export"+tt.query, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantContentType, rec.Header().Get("Content-Type"))
			if tt.wantDisposition != "" {
				assert.Equal(t, tt.wantDisposition, rec.Header().Get("Content-Disposition"))
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			svc.AssertExpectations(t)
		})
	}
}

func TestClientLogHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantLogged bool
	}{
		{name: "error report", body: `{"level":"error","message":"chart render failed","source":"dashboard.js"}`, wantStatus: http.StatusAccepted, wantLogged: true},
		{name: "missing level defaults to info", body: `{"message":"chart render failed"}`, wantStatus: http.StatusAccepted, wantLogged: true},
		{name: "unknown level", body: `{"level":"fatal","message":"chart render failed"}`, wantStatus: http.StatusBadRequest},
		{name: "missing message", body: `{"level":"warn"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewClientLogHandler(middleware.NewRequestValidator(logger), apierrors.NewErrorHandler(logger, false), logger)

			req := httptest.NewRequest(http.MethodPost, "/api/logs", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.Handle(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantLogged, logs.ContainsMessage("chart render failed"))
		})
	}
}

func TestHealthHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	health := services.NewHealthService("1.2.3", "", services.NewWorkbookService(services.WorkbookServiceOptions{}, logger), nil, logger)
	h := NewHealthHandler(health, logger)

	r := chi.NewRouter()
	r.Mount("/api/health", h.Routes())
	r.Get("/api/version", h.Version)

	tests := []struct {
		path       string
		wantStatus string
	}{
		{path: "/api/health", wantStatus: "ok"},
		{path: "/api/health/ready", wantStatus: "ready"},
		{path: "/api/health/live", wantStatus: "alive"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			require.Equal(t, http.StatusOK, rec.Code)
			var got services.HealthStatus
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, tt.wantStatus, got.Status)
			assert.Equal(t, "1.2.3", got.Version)
		})
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
}

func TestServeDashboardPage(t *testing.T) {
	pages := fstest.MapFS{
		"index.html": {Data: []byte(`<title>SheetPulse {{.Version}}</title>{{if .ImportEnabled}}import{{end}}`)},
	}

	handler, err := ServeDashboardPage(pages, PageData{Version: "1.2.3", ImportEnabled: true})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "<title>SheetPulse 1.2.3</title>import", rec.Body.String())

	_, err = ServeDashboardPage(fstest.MapFS{}, PageData{})
	assert.Error(t, err)
}
