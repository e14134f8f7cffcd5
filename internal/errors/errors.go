package errors

import "net/http"

// APIError is an error raised by a handler or middleware that already knows
// its HTTP status. ErrorHandler renders it as a problem with error_code set.
type APIError struct {
	StatusCode int    `json:"status_code"`
	ErrorCode  string `json:"error_code"`
	Message    string `json:"message"`
	Details    any    `json:"details,omitempty"`
}

func (e *APIError) Error() string { return e.Message }

// ValidationError is one rejected request field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{StatusCode: statusCode, ErrorCode: errorCode, Message: message}
}

// NewWithDetails is New plus a details payload, usually a []ValidationError.
func NewWithDetails(statusCode int, errorCode, message string, details any) *APIError {
	e := New(statusCode, errorCode, message)
	e.Details = details
	return e
}

// NewValidationErrors reports every failed field of a request at once.
func NewValidationErrors(errs []ValidationError) *APIError {
	return NewWithDetails(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed", errs)
}

// ErrImportDisabled is returned by Import when no Google Sheets API key is configured.
var ErrImportDisabled = New(http.StatusServiceUnavailable, "IMPORT_DISABLED", "Google Sheets import is not configured")
