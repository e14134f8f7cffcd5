package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks an upload that cannot be read as tabular data at all.
	ErrMalformedInput = errors.New("malformed input")

	// ErrNoWorkbook is returned when no workbook has been loaded yet.
	ErrNoWorkbook = errors.New("no workbook loaded")

	// ErrSheetNotFound is returned for an unknown sheet name.
	ErrSheetNotFound = errors.New("sheet not found")

	// ErrUnknownColumn is returned when a query names a column the sheet does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrUnsupportedFormat is returned for an export format outside csv, json and xlsx.
	ErrUnsupportedFormat = errors.New("unsupported format")
)

// MalformedInputError reports why an upload could not be parsed.
type MalformedInputError struct {
	Source string
	Reason string
	Err    error
}

// NewMalformedInputError builds a MalformedInputError.
func NewMalformedInputError(source, reason string, err error) *MalformedInputError {
	return &MalformedInputError{Source: source, Reason: reason, Err: err}
}

func (e *MalformedInputError) Error() string {
	msg := fmt.Sprintf("malformed input %q: %s", e.Source, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrMalformedInput.
func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}
