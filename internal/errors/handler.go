package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"sheetpulse/internal/validation"
	"sheetpulse/pkg/contracts/domain"
)

// Problem types following RFC 7807
const (
	TypeValidation      = "/errors/validation"
	TypeNotFound        = "/errors/not-found"
	TypeRateLimit       = "/errors/rate-limit"
	TypeInternal        = "/errors/internal"
	TypeServiceDown     = "/errors/service-unavailable"
	TypeTimeout         = "/errors/timeout"
	TypePayloadTooLarge = "/errors/payload-too-large"
	TypeBadGateway      = "/errors/bad-gateway"
	TypeMethodNotAllow  = "/errors/method-not-allowed"
)

// Workbook problem types
const (
	TypeMalformedWorkbook = "/errors/workbook/malformed"
	TypeUnsupportedFormat = "/errors/workbook/unsupported-format"
	TypeNoWorkbook        = "/errors/workbook/not-loaded"
	TypeSheetNotFound     = "/errors/workbook/sheet-not-found"
	TypeUnknownColumn     = "/errors/workbook/unknown-column"
)

const internalDetail = "An unexpected error occurred while processing your request"

// sentinelProblem maps a sentinel error to a problem. detail overrides the
// error text when set.
type sentinelProblem struct {
	err    error
	status int
	typ    string
	title  string
	detail string
}

var sentinelProblems = []sentinelProblem{
	{domain.ErrMalformedInput, http.StatusUnprocessableEntity, TypeMalformedWorkbook, "Malformed Workbook", ""},
	{domain.ErrUnsupportedFormat, http.StatusBadRequest, TypeUnsupportedFormat, "Unsupported Format", ""},
	{domain.ErrUnknownColumn, http.StatusBadRequest, TypeUnknownColumn, "Unknown Column", ""},
	{validation.ErrFileTooLarge, http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large", ""},
	{domain.ErrNoWorkbook, http.StatusNotFound, TypeNoWorkbook, "No Workbook Loaded", "Upload a workbook first"},
	{domain.ErrSheetNotFound, http.StatusNotFound, TypeSheetNotFound, "Sheet Not Found", ""},
}

// problem types for APIError by status; anything else is internal
var statusProblemTypes = map[int]string{
	http.StatusBadRequest:            TypeValidation,
	http.StatusNotFound:              TypeNotFound,
	http.StatusTooManyRequests:       TypeRateLimit,
	http.StatusServiceUnavailable:    TypeServiceDown,
	http.StatusRequestEntityTooLarge: TypePayloadTooLarge,
}

// ErrorHandler renders errors as application/problem+json and logs them.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates an error handler. includeStack adds goroutine stacks
// to 5xx problems and should stay off outside development.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError writes the problem for err. 5xx are logged at error level,
// everything else at warn.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r).WithExtension("trace_id", reqID)
	serverSide := problem.Status >= http.StatusInternalServerError

	level := slog.LevelWarn
	if serverSide {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path))

	if h.includeStack && serverSide {
		problem.WithExtension("stack", string(debug.Stack()))
	}
	_ = problem.Write(w)
}

// ErrorToProblem classifies err. Unrecognized errors become a 500 whose
// detail does not leak the error text.
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	path := r.URL.Path
	problem := func(status int, typ, title, detail string) *ProblemDetails {
		return NewProblemDetails(status, typ, title, detail, path)
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return problem(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The request took too long to process and was cancelled")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		typ, ok := statusProblemTypes[apiErr.StatusCode]
		if !ok {
			typ = TypeInternal
		}
		p := problem(apiErr.StatusCode, typ, http.StatusText(apiErr.StatusCode), apiErr.Message).
			WithExtension("error_code", apiErr.ErrorCode)
		if apiErr.Details != nil {
			p.WithExtension("details", apiErr.Details)
		}
		return p
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]ValidationError, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, ValidationError{
				Field:   fe.Field(),
				Message: fmt.Sprintf("failed on the '%s' rule", fe.Tag()),
			})
		}
		return problem(http.StatusBadRequest, TypeValidation, "Validation Failed", "Request validation failed").
			WithExtension("errors", fields)
	}

	var malformed *domain.MalformedInputError
	if errors.As(err, &malformed) {
		return problem(http.StatusUnprocessableEntity, TypeMalformedWorkbook, "Malformed Workbook", malformed.Error()).
			WithExtension("source", malformed.Source)
	}
	for _, sp := range sentinelProblems {
		if !errors.Is(err, sp.err) {
			continue
		}
		detail := sp.detail
		if detail == "" {
			detail = err.Error()
		}
		return problem(sp.status, sp.typ, sp.title, detail)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		p := appErrorProblem(appErr, path)
		if len(appErr.Context) > 0 {
			p.WithExtension("context", appErr.Context)
		}
		return p
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		return problem(http.StatusRequestEntityTooLarge, TypePayloadTooLarge, "Payload Too Large",
			"The request body exceeds the maximum allowed size")
	}

	return problem(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail)
}

func appErrorProblem(e *AppError, path string) *ProblemDetails {
	switch e.Type {
	case ErrTypeValidation, ErrTypeParsing:
		return NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", e.Message, path)
	case ErrTypeNotFound:
		return NewProblemDetails(http.StatusNotFound, TypeNotFound, "Resource Not Found", e.Message, path)
	case ErrTypeNetwork:
		return NewProblemDetails(http.StatusBadGateway, TypeBadGateway, "Upstream Failure", e.Message, path)
	}
	return NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error", internalDetail, path)
}

// HandlePanic logs the recovered value with its stack and writes a 500.
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered any) {
	reqID := middleware.GetReqID(r.Context())
	stack := string(debug.Stack())

	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", stack))

	problem := NewProblemDetails(http.StatusInternalServerError, TypeInternal, "Internal Server Error",
		"An unexpected error occurred", r.URL.Path).WithExtension("trace_id", reqID)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprint(recovered)).WithExtension("stack", stack)
	}
	_ = problem.Write(w)
}

// NotFound is the router's 404 handler.
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	_ = NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())).
		Write(w)
}

// MethodNotAllowed is the router's 405 handler.
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	_ = NewProblemDetails(http.StatusMethodNotAllowed, TypeMethodNotAllow, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path).
		WithExtension("trace_id", middleware.GetReqID(r.Context())).
		Write(w)
}
