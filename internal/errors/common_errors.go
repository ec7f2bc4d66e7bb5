package errors

import (
	"errors"
	"fmt"
)

// ErrorType represents the type of error
type ErrorType string

const (
	ErrTypeSchema           ErrorType = "SCHEMA"
	ErrTypeUnknownParameter ErrorType = "UNKNOWN_PARAMETER"
	ErrTypeInvalidStatistic ErrorType = "INVALID_STATISTIC"
	ErrTypeUnknownMethod    ErrorType = "UNKNOWN_METHOD"
	ErrTypeInsufficientData ErrorType = "INSUFFICIENT_DATA"
	ErrTypeParsing          ErrorType = "PARSING"
	ErrTypeStorage          ErrorType = "STORAGE"
	ErrTypeValidation       ErrorType = "VALIDATION"
	ErrTypeNotFound         ErrorType = "NOT_FOUND"
	ErrTypeConfig           ErrorType = "CONFIG"
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

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// Helper constructors for the error taxonomy

// NewSchemaError creates a fatal load-time error for missing required
// structure. Nothing downstream runs after one of these.
func NewSchemaError(message string, cause error) *AppError {
	return NewAppError(ErrTypeSchema, message, cause)
}

// NewUnknownParameterError reports a parameter name outside the dataset's
// numeric parameter set.
func NewUnknownParameterError(parameter string) *AppError {
	return NewAppError(ErrTypeUnknownParameter, fmt.Sprintf("unknown parameter %q", parameter), nil).
		WithContext("parameter", parameter)
}

// NewInvalidStatisticError reports an unrecognized statistic name.
func NewInvalidStatisticError(statistic string) *AppError {
	return NewAppError(ErrTypeInvalidStatistic, fmt.Sprintf("invalid statistic %q", statistic), nil).
		WithContext("statistic", statistic)
}

// NewUnknownMethodError reports an unrecognized correlation method name.
func NewUnknownMethodError(method string) *AppError {
	return NewAppError(ErrTypeUnknownMethod, fmt.Sprintf("unknown correlation method %q", method), nil).
		WithContext("method", method)
}

// NewInsufficientDataError reports that too few complete rows remain for the
// requested computation. Distinct from the empty-selection case, which is a
// normal outcome and not an error.
func NewInsufficientDataError(message string) *AppError {
	return NewAppError(ErrTypeInsufficientData, message, nil)
}

// NewParsingError creates a parsing-related error
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewStorageError creates a storage-related error
func NewStorageError(message string, cause error) *AppError {
	return NewAppError(ErrTypeStorage, message, cause)
}

// NewValidationError creates a validation error
func NewValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}
