package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"

	"sheetpulse/internal/config"
)

type contextKey string

const (
	// TraceIDContextKey carries the per-request or per-command trace id.
	TraceIDContextKey contextKey = "trace_id"
	// RequestIDContextKey is the same key under its HTTP name.
	RequestIDContextKey = TraceIDContextKey
)

// process-wide logger, set once by InitializeLogger
var logState struct {
	once   sync.Once
	logger *slog.Logger

	mu   sync.Mutex
	file *os.File
}

// InitializeLogger builds the process logger from cfg and installs it as the
// slog default. Later calls return the first logger.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	var initErr error
	logState.once.Do(func() {
		w, err := openSink(cfg)
		if err != nil {
			initErr = err
			return
		}
		logState.logger = NewLogger(cfg, w)
		slog.SetDefault(logState.logger)
	})
	return logState.logger, initErr
}

// GetLogger returns the process logger, or slog.Default before initialization.
func GetLogger() *slog.Logger {
	if l := logState.logger; l != nil {
		return l
	}
	return slog.Default()
}

// NewLogger returns a logger on w. Records carry the source position and, when
// the context has one, the trace id.
func NewLogger(cfg config.LoggingConfig, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true, Level: parseLogLevel(cfg.Level)}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(traceHandler{h})
}

// openSink resolves cfg.Output to a writer. "file" and "both" append to
// cfg.FilePath, creating its directory.
func openSink(cfg config.LoggingConfig) (io.Writer, error) {
	out := strings.ToLower(cfg.Output)
	if out != "file" && out != "both" {
		return os.Stdout, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", cfg.FilePath, err)
	}

	logState.mu.Lock()
	logState.file = f
	logState.mu.Unlock()

	if out == "both" {
		return io.MultiWriter(os.Stdout, f), nil
	}
	return f, nil
}

// traceHandler stamps trace_id onto records logged with a traced context.
type traceHandler struct {
	slog.Handler
}

func (h traceHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := GetTraceID(ctx); id != "" {
		r.AddAttrs(slog.String("trace_id", id))
	}
	return h.Handler.Handle(ctx, r)
}

func (h traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return traceHandler{h.Handler.WithAttrs(attrs)}
}

func (h traceHandler) WithGroup(name string) slog.Handler {
	return traceHandler{h.Handler.WithGroup(name)}
}

var logLevels = map[string]slog.Level{
	"debug":   slog.LevelDebug,
	"info":    slog.LevelInfo,
	"warn":    slog.LevelWarn,
	"warning": slog.LevelWarn,
	"error":   slog.LevelError,
}

// parseLogLevel maps a level name to slog. Unknown names log at info.
func parseLogLevel(level string) slog.Level {
	if l, ok := logLevels[strings.ToLower(level)]; ok {
		return l
	}
	return slog.LevelInfo
}

// WithTraceID returns ctx carrying traceID.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, TraceIDContextKey, traceID)
}

// GetTraceID returns the trace id stored by WithTraceID, falling back to the
// active OpenTelemetry span.
func GetTraceID(ctx context.Context) string {
	if id, ok := ctx.Value(TraceIDContextKey).(string); ok {
		return id
	}
	return TraceIDFromContext(ctx)
}

// EnsureTraceID returns ctx unchanged when it already carries a trace id and
// otherwise attaches a fresh UUID. CLI commands use it in place of RequestID.
func EnsureTraceID(ctx context.Context) context.Context {
	if GetTraceID(ctx) != "" {
		return ctx
	}
	return WithTraceID(ctx, uuid.NewString())
}

// CloseLogFile closes the log file opened by InitializeLogger, if any.
func CloseLogFile() error {
	logState.mu.Lock()
	defer logState.mu.Unlock()

	f := logState.file
	logState.file = nil
	if f == nil {
		return nil
	}
	return f.Close()
}

// ResetLoggerForTesting forgets the process logger so a test can initialize
// a new one.
func ResetLoggerForTesting() {
	_ = CloseLogFile()
	logState.logger = nil
	logState.once = sync.Once{}
}
