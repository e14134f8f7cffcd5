package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sheetpulse/internal/errors"
	"sheetpulse/internal/middleware"
	api "sheetpulse/pkg/contracts/api/v1"
)

// multipartOverhead is allowed on top of the file size limit for form framing.
const multipartOverhead = 1 << 20

// WorkbookHandler handles upload, import and workbook read requests
type WorkbookHandler struct {
	service      WorkbookServiceInterface
	validator    *middleware.RequestValidator
	errorHandler *apierrors.ErrorHandler
	maxUpload    int64
	logger       *slog.Logger
}

// NewWorkbookHandler creates a workbook handler. maxUpload bounds the request body.
func NewWorkbookHandler(service WorkbookServiceInterface, validator *middleware.RequestValidator, errorHandler *apierrors.ErrorHandler, maxUpload int64, logger *slog.Logger) *WorkbookHandler {
	return &WorkbookHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		maxUpload:    maxUpload,
		logger:       logger.With(slog.String("component", "workbook_handler")),
	}
}

// Routes returns the workbook routes
func (h *WorkbookHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetWorkbook)
	r.Get("/status", h.GetStatus)
	r.Get("/sheets", h.ListSheets)
	r.Get("/sheets/{sheet}", h.GetSheet)

	r.With(middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data")).Post("/upload", h.Upload)
	r.With(middleware.ContentTypeValidator(h.errorHandler, "application/json")).Post("/import", h.Import)

	return r
}

// Upload handles POST /api/workbook/upload with a multipart "file" field
func (h *WorkbookHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.maxUpload > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+multipartOverhead)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.New(http.StatusBadRequest, "MISSING_FILE",
			`Multipart field "file" is required`))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "workbook upload received",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("file", header.Filename),
		slog.Int("bytes", len(data)))

	info, err := h.service.Load(r.Context(), header.Filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// Import handles POST /api/workbook/import
func (h *WorkbookHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req api.ImportRequest
	if err := h.validator.DecodeJSON(r, &req); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	info, err := h.service.Import(r.Context(), req.SpreadsheetID)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetStatus handles GET /api/workbook/status
func (h *WorkbookHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Status()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetWorkbook handles GET /api/workbook
func (h *WorkbookHandler) GetWorkbook(w http.ResponseWriter, r *http.Request) {
	wb, err := h.service.Workbook()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, wb)
}

// ListSheets handles GET /api/workbook/sheets
func (h *WorkbookHandler) ListSheets(w http.ResponseWriter, r *http.Request) {
	wb, err := h.service.Workbook()
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	resp := api.SheetListResponse{Sheets: make([]api.SheetInfo, 0, len(wb.Sheets))}
	for _, s := range wb.Sheets {
		columns := []string{}
		if s.Table != nil {
			columns = append(columns, s.Table.Columns...)
		}
		resp.Sheets = append(resp.Sheets, api.SheetInfo{
			Name:    s.Name,
			Rows:    s.Table.NumRows(),
			Columns: columns,
			Empty:   s.Table.NumRows() == 0,
		})
	}
	render.JSON(w, r, resp)
}

// GetSheet handles GET /api/workbook/sheets/{sheet}.
// An empty sheet renders as [].
func (h *WorkbookHandler) GetSheet(w http.ResponseWriter, r *http.Request) {
	sheet, err := h.service.Sheet(sheetParam(r))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	if sheet.Table == nil {
		render.JSON(w, r, []struct{}{})
		return
	}
	render.JSON(w, r, sheet.Table)
}

// sheetParam returns the {sheet} path segment, unescaping names that
// carried reserved characters such as "/".
func sheetParam(r *http.Request) string {
	name := chi.URLParam(r, "sheet")
	if r.URL.RawPath == "" {
		return name
	}
	if unescaped, err := url.PathUnescape(name); err == nil {
		return unescaped
	}
	return name
}
