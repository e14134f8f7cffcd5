package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"sheetpulse/internal/dashboard"
	"sheetpulse/internal/dataprocessing"
	apierrors "sheetpulse/internal/errors"
	"sheetpulse/internal/exporter"
	"sheetpulse/internal/infrastructure"
	"sheetpulse/internal/validation"
	"sheetpulse/pkg/contracts/domain"
	"sheetpulse/pkg/contracts/events"
)

// FormatGoogleSheets is the upload format recorded for imported spreadsheets.
const FormatGoogleSheets = "gsheets"

// WebSocketHub interface for WebSocket communication
type WebSocketHub interface {
	Broadcast(messageType string, data interface{})
}

// SpreadsheetFetcher reads a remote spreadsheet into a raw workbook.
type SpreadsheetFetcher interface {
	Fetch(ctx context.Context, spreadsheetID string) (*domain.RawWorkbook, error)
}

// WorkbookMetrics receives load outcomes.
type WorkbookMetrics interface {
	RecordUpload(ctx context.Context, format, outcome string)
	RecordNormalize(ctx context.Context, d time.Duration)
	SetSheetsLoaded(ctx context.Context, n int)
}

// WorkbookServiceOptions wires the collaborators of a WorkbookService.
// Nil collaborators get working defaults; a nil Fetcher disables imports.
type WorkbookServiceOptions struct {
	Validator     *validation.FileValidator
	Fetcher       SpreadsheetFetcher
	ImportTimeout time.Duration
	Builder       *dashboard.Builder
	Exporter      *exporter.Exporter
	View          dataprocessing.ViewOptions
	Metrics       WorkbookMetrics
	Hub           WebSocketHub
}

// WorkbookService holds the current workbook and answers every query against it.
type WorkbookService struct {
	mu       sync.RWMutex
	workbook *domain.Workbook
	info     domain.UploadInfo

	validator     *validation.FileValidator
	fetcher       SpreadsheetFetcher
	importTimeout time.Duration
	builder       *dashboard.Builder
	exporter      *exporter.Exporter
	view          dataprocessing.ViewOptions
	metrics       WorkbookMetrics
	hub           WebSocketHub
	logger        *slog.Logger
}

// NewWorkbookService creates a service with no workbook loaded.
func NewWorkbookService(opts WorkbookServiceOptions, logger *slog.Logger) *WorkbookService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "workbook_service"))

	if opts.Validator == nil {
		opts.Validator = validation.NewFileValidator(logger, 0)
	}
	if opts.Builder == nil {
		opts.Builder = dashboard.NewBuilder(dashboard.DefaultOptions(), nil, logger)
	}
	if opts.Exporter == nil {
		opts.Exporter = exporter.New(exporter.Options{}, logger)
	}
	if opts.View == (dataprocessing.ViewOptions{}) {
		opts.View = dataprocessing.DefaultViewOptions()
	}

	return &WorkbookService{
		validator:     opts.Validator,
		fetcher:       opts.Fetcher,
		importTimeout: opts.ImportTimeout,
		builder:       opts.Builder,
		exporter:      opts.Exporter,
		view:          opts.View,
		metrics:       opts.Metrics,
		hub:           opts.Hub,
		logger:        logger,
	}
}

// Load validates, parses and normalizes an uploaded file and, on success,
// replaces the held workbook. On failure the previous workbook is kept.
func (s *WorkbookService) Load(ctx context.Context, filename string, data []byte) (domain.UploadInfo, error) {
	if err := s.validator.ValidateUpload(filename, int64(len(data))); err != nil {
		return domain.UploadInfo{}, s.reject(ctx, filename, "unknown", err)
	}

	start := time.Now()
	raw, format, err := dataprocessing.Parse(filename, data)
	if err != nil {
		if format == "" {
			format = "unknown"
		}
		return domain.UploadInfo{}, s.reject(ctx, filename, string(format), err)
	}

	wb, err := dataprocessing.Normalize(raw)
	if err != nil {
		return domain.UploadInfo{}, s.reject(ctx, filename, string(format), err)
	}
	if s.metrics != nil {
		s.metrics.RecordNormalize(ctx, time.Since(start))
	}

	return s.commit(ctx, filename, string(format), wb), nil
}

// Import loads a Google Sheets spreadsheet as the workbook.
func (s *WorkbookService) Import(ctx context.Context, spreadsheetID string) (domain.UploadInfo, error) {
	if s.fetcher == nil {
		return domain.UploadInfo{}, apierrors.ErrImportDisabled
	}
	source := "gsheets:" + spreadsheetID

	if s.importTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.importTimeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.fetcher.Fetch(ctx, spreadsheetID)
	if err != nil {
		if !errors.Is(err, domain.ErrMalformedInput) && ctx.Err() == nil {
			err = apierrors.NewNetworkError("google sheets import failed", err)
		}
		return domain.UploadInfo{}, s.reject(ctx, source, FormatGoogleSheets, err)
	}

	wb, err := dataprocessing.Normalize(raw)
	if err != nil {
		return domain.UploadInfo{}, s.reject(ctx, source, FormatGoogleSheets, err)
	}
	if s.metrics != nil {
		s.metrics.RecordNormalize(ctx, time.Since(start))
	}

	return s.commit(ctx, source, FormatGoogleSheets, wb), nil
}

// ImportEnabled reports whether a spreadsheet fetcher is configured.
func (s *WorkbookService) ImportEnabled() bool {
	return s.fetcher != nil
}

func (s *WorkbookService) commit(ctx context.Context, filename, format string, wb *domain.Workbook) domain.UploadInfo {
	info := domain.UploadInfo{
		ID:           uuid.New().String(),
		FileName:     filename,
		Format:       format,
		SheetNames:   wb.SheetNames(),
		Sheets:       len(wb.Sheets),
		TotalRecords: wb.TotalRecords(),
		LoadedAt:     time.Now().UTC(),
	}

	s.mu.Lock()
	s.workbook = wb
	s.info = info
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Workbook loaded",
		slog.String("upload_id", info.ID),
		slog.String("file", filename),
		slog.String("format", format),
		slog.Int("sheets", info.Sheets),
		slog.Int("records", info.TotalRecords))

	infrastructure.AddSpanEvent(ctx, "workbook.loaded",
		attribute.String("upload_id", info.ID),
		attribute.String("format", format),
		attribute.Int("sheets", info.Sheets),
		attribute.Int("records", info.TotalRecords))
	if s.metrics != nil {
		s.metrics.RecordUpload(ctx, format, infrastructure.OutcomeAccepted)
		s.metrics.SetSheetsLoaded(ctx, info.Sheets)
	}
	if s.hub != nil {
		s.hub.Broadcast(string(events.MessageTypeWorkbookLoaded), events.WorkbookLoaded{
			UploadID:     info.ID,
			FileName:     filename,
			SheetNames:   info.SheetNames,
			TotalRecords: info.TotalRecords,
		})
	}
	return info
}

func (s *WorkbookService) reject(ctx context.Context, filename, format string, err error) error {
	s.mu.RLock()
	retained := s.workbook != nil
	s.mu.RUnlock()

	s.logger.WarnContext(ctx, "Workbook rejected",
		slog.String("file", filename),
		slog.String("format", format),
		slog.Bool("retained_previous", retained),
		slog.String("error", err.Error()))

	infrastructure.RecordError(ctx, err)
	if s.metrics != nil {
		s.metrics.RecordUpload(ctx, format, infrastructure.OutcomeRejected)
	}
	if s.hub != nil {
		s.hub.Broadcast(string(events.MessageTypeWorkbookRejected), events.WorkbookRejected{
			FileName: filename,
			Reason:   err.Error(),
			Retained: retained,
		})
	}
	return fmt.Errorf("failed to load %s: %w", filename, err)
}

func (s *WorkbookService) current() (*domain.Workbook, domain.UploadInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workbook == nil {
		return nil, domain.UploadInfo{}, domain.ErrNoWorkbook
	}
	return s.workbook, s.info, nil
}

// Status describes the held workbook.
func (s *WorkbookService) Status() (domain.UploadInfo, error) {
	_, info, err := s.current()
	return info, err
}

// Loaded reports whether a workbook is held.
func (s *WorkbookService) Loaded() bool {
	_, _, err := s.current()
	return err == nil
}

// Workbook returns the held workbook.
func (s *WorkbookService) Workbook() (*domain.Workbook, error) {
	wb, _, err := s.current()
	return wb, err
}

// Sheet returns one sheet of the held workbook by exact name.
func (s *WorkbookService) Sheet(name string) (*domain.Sheet, error) {
	wb, _, err := s.current()
	if err != nil {
		return nil, err
	}
	sheet, ok := wb.Sheet(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrSheetNotFound, name)
	}
	return sheet, nil
}

// MainSheet resolves the sheet a view is built from; an empty name picks the
// conventional main sheet.
func (s *WorkbookService) MainSheet(name string) (*domain.Sheet, error) {
	wb, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return dashboard.SelectSheet(wb, name)
}

// Dashboard builds the KPIs, summary and charts for a sheet.
func (s *WorkbookService) Dashboard(ctx context.Context, sheetName string) (domain.Dashboard, error) {
	sheet, err := s.MainSheet(sheetName)
	if err != nil {
		return domain.Dashboard{}, err
	}

	start := time.Now()
	d := s.builder.Build(ctx, sheet)
	s.logger.DebugContext(ctx, "Dashboard built",
		slog.String("sheet", sheet.Name),
		slog.Int("charts", len(d.Charts)),
		slog.Duration("duration", time.Since(start)))
	return d, nil
}

// Roles classifies the columns of a sheet.
func (s *WorkbookService) Roles(sheetName string) (string, domain.ColumnRoleMap, error) {
	sheet, err := s.MainSheet(sheetName)
	if err != nil {
		return "", domain.ColumnRoleMap{}, err
	}
	return sheet.Name, dataprocessing.Classify(sheet.Table), nil
}

// Table applies a search, column selection and row limit to a sheet.
func (s *WorkbookService) Table(sheetName string, q domain.TableQuery) (*domain.TableView, error) {
	sheet, err := s.MainSheet(sheetName)
	if err != nil {
		return nil, err
	}
	return dataprocessing.ApplyQuery(sheet, q, s.view)
}

// Export writes the table view of a sheet to w and returns the download name.
func (s *WorkbookService) Export(ctx context.Context, w io.Writer, sheetName string, q domain.TableQuery, format domain.ExportFormat) (string, error) {
	view, err := s.Table(sheetName, q)
	if err != nil {
		return "", err
	}
	if err := s.exporter.Export(ctx, w, format, view.Sheet, view.Table()); err != nil {
		return "", err
	}
	return exporter.FileName(view.Sheet, format), nil
}
