package http

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	apierrors "sheetpulse/internal/errors"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/middleware"
	api "sheetpulse/pkg/contracts/api/v1"
	"sheetpulse/pkg/contracts/domain"
)

// ViewHandler serves the views derived from the held workbook.
// Every route takes an optional ?sheet= naming the sheet to read.
type ViewHandler struct {
	service      WorkbookServiceInterface
	validator    *middleware.RequestValidator
	errorHandler *apierrors.ErrorHandler
	logger       *slog.Logger
}

// NewViewHandler creates a view handler
func NewViewHandler(service WorkbookServiceInterface, validator *middleware.RequestValidator, errorHandler *apierrors.ErrorHandler, logger *slog.Logger) *ViewHandler {
	return &ViewHandler{
		service:      service,
		validator:    validator,
		errorHandler: errorHandler,
		logger:       logger.With(slog.String("component", "view_handler")),
	}
}

// RegisterRoutes adds /dashboard, /roles, /table and /table/export to r
func (h *ViewHandler) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Get("/dashboard", h.GetDashboard)
		r.Get("/roles", h.GetRoles)
		r.Get("/table", h.GetTable)
	})
	r.Get("/table/export", h.ExportTable)
}

// GetDashboard handles GET /api/dashboard
func (h *ViewHandler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := h.service.Dashboard(r.Context(), r.URL.Query().Get("sheet"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, d)
}

// GetRoles handles GET /api/roles
func (h *ViewHandler) GetRoles(w http.ResponseWriter, r *http.Request) {
	sheet, roles, err := h.service.Roles(r.URL.Query().Get("sheet"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.RolesResponse{
		Sheet:   sheet,
		Roles:   roles,
		Buckets: roles.Buckets(),
	})
}

// GetTable handles GET /api/table?search=&columns=&limit=
func (h *ViewHandler) GetTable(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.BindTableRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	view, err := h.service.Table(r.URL.Query().Get("sheet"), req.Query())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	render.JSON(w, r, api.NewTableResponse(view))
}

// ExportTable handles GET /api/table/export?format=csv|json|xlsx.
// The file is rendered fully before any header is written so a failed export
// still produces a problem response.
func (h *ViewHandler) ExportTable(w http.ResponseWriter, r *http.Request) {
	req, err := h.validator.BindTableRequest(r)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	format := domain.ExportCSV
	if req.Format != "" {
		if format, err = exporter.ParseFormat(req.Format); err != nil {
			h.errorHandler.HandleError(w, r, err)
			return
		}
	}

	var buf bytes.Buffer
	filename, err := h.service.Export(r.Context(), &buf, r.URL.Query().Get("sheet"), req.Query(), format)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "table exported",
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("format", string(format)),
		slog.String("file", filename),
		slog.Int("bytes", buf.Len()))

	w.Header().Set("Content-Type", exporter.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.DebugContext(r.Context(), "export write failed",
			slog.String("file", filename),
			slog.String("error", err.Error()))
	}
}
