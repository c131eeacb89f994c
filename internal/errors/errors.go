package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies pipeline errors. Only ErrTypeDegenerateBracket and the
// ambient storage/config/parsing types abort a run; the per-period numeric
// types surface as missing output fields and the batch continues.
type ErrorType string

const (
	ErrTypeMissingIndex       ErrorType = "MISSING_INDEX"
	ErrTypeInsufficientData   ErrorType = "INSUFFICIENT_DATA"
	ErrTypeInvalidSlope       ErrorType = "INVALID_SLOPE"
	ErrTypeDegenerateBracket  ErrorType = "DEGENERATE_BRACKET"
	ErrTypeStorage            ErrorType = "STORAGE"
	ErrTypeParsing            ErrorType = "PARSING"
	ErrTypeConfig             ErrorType = "CONFIG"
)

// AppError represents an application-specific error
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// IsType reports whether err (or anything it wraps) is an AppError of the
// given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper constructors for the pipeline error taxonomy

// NewMissingIndexError reports a period with no deflator ratio.
func NewMissingIndexError(period int) *AppError {
	return NewAppError(ErrTypeMissingIndex,
		fmt.Sprintf("no deflator index for period %d", period), nil).
		WithContext("period", period)
}

// NewInsufficientDataError reports too few usable points for a fit or quantile.
func NewInsufficientDataError(message string, n int) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil).
		WithContext("points", n)
}

// NewInvalidSlopeError reports a regression that yielded a non-decaying
// relationship where decay is required.
func NewInvalidSlopeError(segment string, slope float64) *AppError {
	return NewAppError(ErrTypeInvalidSlope,
		fmt.Sprintf("non-decaying %s segment (slope %.6g >= 0)", segment, slope), nil).
		WithContext("segment", segment).
		WithContext("slope", slope)
}

// NewDegenerateBracketError reports an upstream contract violation in the
// source bracket table. Always fatal.
func NewDegenerateBracketError(message string, period int) *AppError {
	return NewAppError(ErrTypeDegenerateBracket, message, nil).
		WithContext("period", period)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
