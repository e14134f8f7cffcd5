package errors

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

const (
	maxLoggedBody   = 64 << 10
	maxBodyLogChars = 500
)

// redactedFields are blanked out of request bodies before they are logged.
var redactedFields = []string{"api_key", "apiKey", "key", "token", "secret", "password"}

// ErrorMiddleware logs every API request at a level chosen by its status and
// turns panics into problem responses.
type ErrorMiddleware struct {
	handler *ErrorHandler
	logger  *slog.Logger
}

func NewErrorMiddleware(handler *ErrorHandler, logger *slog.Logger) *ErrorMiddleware {
	return &ErrorMiddleware{
		handler: handler,
		logger:  logger.With(slog.String("component", "api")),
	}
}

// Handler wraps next. Small JSON request bodies are captured so failed
// requests can be logged with their payload; uploads are never buffered.
func (m *ErrorMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := captureJSONBody(r)
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		defer func() {
			if rec := recover(); rec != nil {
				m.handler.HandlePanic(ww, r, rec)
			}
		}()
		next.ServeHTTP(ww, r)

		status := ww.Status()
		attrs := []slog.Attr{
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Duration("duration", time.Since(start)),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("remote_addr", r.RemoteAddr),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		}
		if q := r.URL.RawQuery; q != "" {
			attrs = append(attrs, slog.String("query", q))
		}
		if status >= http.StatusBadRequest && len(body) > 0 {
			attrs = append(attrs, slog.String("request_body", truncate(sanitizeRequestBody(string(body)), maxBodyLogChars)))
		}
		m.logger.LogAttrs(r.Context(), levelForStatus(status), "http request", attrs...)
	})
}

func captureJSONBody(r *http.Request) []byte {
	if r.Body == nil || r.ContentLength <= 0 || r.ContentLength >= maxLoggedBody {
		return nil
	}
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

func levelForStatus(status int) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	default:
		return slog.LevelInfo
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// sanitizeRequestBody replaces credential fields of a JSON object body.
// Anything that is not a JSON object is returned unchanged.
func sanitizeRequestBody(body string) string {
	var obj map[string]any
	if json.Unmarshal([]byte(body), &obj) != nil {
		return body
	}
	for _, f := range redactedFields {
		if _, ok := obj[f]; ok {
			obj[f] = "[REDACTED]"
		}
	}
	out, err := json.Marshal(obj)
	if err != nil {
		return body
	}
	return string(out)
}

// RecoveryMiddleware answers a panicking handler with a 500 problem.
func RecoveryMiddleware(handler *ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					handler.HandlePanic(w, r, rec)
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}
