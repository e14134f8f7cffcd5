package exporter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"sheetpulse/pkg/contracts/domain"
)

// Recorder is notified of every completed export.
type Recorder interface {
	RecordExport(ctx context.Context, format domain.ExportFormat)
}

// Options configures an Exporter.
type Options struct {
	CSVBOM bool
}

// Exporter dispatches tables to the format writers.
type Exporter struct {
	csv      CSVWriter
	recorder Recorder
	logger   *slog.Logger
}

// New creates an Exporter.
func New(opts Options, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		csv:    CSVWriter{BOMPrefix: opts.CSVBOM},
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// WithRecorder attaches an export recorder.
func (e *Exporter) WithRecorder(r Recorder) *Exporter {
	e.recorder = r
	return e
}

// Export writes t in the requested format. Output is buffered so that a
// failure never leaves a partial file on w.
func (e *Exporter) Export(ctx context.Context, w io.Writer, format domain.ExportFormat, sheet string, t *domain.Table) error {
	var buf bytes.Buffer
	var err error
	switch format {
	case domain.ExportCSV:
		err = e.csv.Write(&buf, t)
	case domain.ExportJSON:
		err = WriteJSON(&buf, t)
	case domain.ExportXLSX:
		err = WriteXLSX(&buf, sheet, t)
	default:
		return fmt.Errorf("%w: export format %q", domain.ErrUnsupportedFormat, format)
	}
	if err != nil {
		return err
	}

	if _, err := buf.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}

	e.logger.InfoContext(ctx, "Exported table",
		slog.String("sheet", sheet),
		slog.String("format", string(format)),
		slog.Int("record_count", t.NumRows()))
	if e.recorder != nil {
		e.recorder.RecordExport(ctx, format)
	}
	return nil
}
