// Package errors defines the typed errors used across the fimkit
// pipeline. Ingestion and extraction errors abort Experiment
// construction; everything downstream of extraction treats malformed
// input as a precondition violation rather than a recoverable error.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies an application error.
type ErrorType string

const (
	ErrTypeInvalidInput  ErrorType = "INVALID_INPUT"
	ErrTypeEmptyInput    ErrorType = "EMPTY_INPUT"
	ErrTypeNoRawData     ErrorType = "NO_RAW_DATA"
	ErrTypeUnknownObject ErrorType = "UNKNOWN_OBJECT"
	ErrTypeParsing       ErrorType = "PARSING"
	ErrTypeConfig        ErrorType = "CONFIG"
)

// AppError represents an application-specific error with a type,
// an optional wrapped cause and free-form context.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap allows errors.Is and errors.As to work with AppError.
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds context to the error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error.
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// NewInvalidInputError reports an input that is neither a path, a
// reader, nor a recognized container of those.
func NewInvalidInputError(message string, cause error) *AppError {
	return NewAppError(ErrTypeInvalidInput, message, cause)
}

// NewEmptyInputError reports input resolution that produced no sources.
func NewEmptyInputError(message string) *AppError {
	return NewAppError(ErrTypeEmptyInput, message, nil)
}

// NewNoRawDataError reports parameter extraction attempted without a
// merged raw table.
func NewNoRawDataError(message string) *AppError {
	return NewAppError(ErrTypeNoRawData, message, nil)
}

// NewUnknownObjectError reports a lookup for an object label that is
// not part of the experiment.
func NewUnknownObjectError(object string) *AppError {
	e := NewAppError(ErrTypeUnknownObject, fmt.Sprintf("object %q not found", object), nil)
	return e.WithContext("object", object)
}

// NewParsingError creates a parsing-related error.
func NewParsingError(message string, cause error) *AppError {
	return NewAppError(ErrTypeParsing, message, cause)
}

// NewConfigError creates a configuration-related error.
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// IsType reports whether err is (or wraps) an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == errType
	}
	return false
}

// IsInvalidInput reports whether err is an invalid-input error.
func IsInvalidInput(err error) bool { return IsType(err, ErrTypeInvalidInput) }

// IsEmptyInput reports whether err is an empty-input error.
func IsEmptyInput(err error) bool { return IsType(err, ErrTypeEmptyInput) }

// IsNoRawData reports whether err is a no-raw-data error.
func IsNoRawData(err error) bool { return IsType(err, ErrTypeNoRawData) }

// IsUnknownObject reports whether err is an unknown-object error.
func IsUnknownObject(err error) bool { return IsType(err, ErrTypeUnknownObject) }
