package errors

import (
	"errors"
	"fmt"
)

// Common application errors
var (
	// Data source errors
	ErrDataSource        = errors.New("price feed request failed")
	ErrMalformedResponse = errors.New("malformed price feed response")

	// Dataset errors
	ErrInsufficientData = errors.New("series shorter than window size + 1")
	ErrUnfittedState    = errors.New("inverse transform before fit")

	// Model errors
	ErrDimensionMismatch = errors.New("model dimensions inconsistent")

	// Training errors
	ErrTrainingDiverged = errors.New("training loss is not finite")
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeDataSource ErrorType = "datasource"
	ErrorTypeDataset    ErrorType = "dataset"
	ErrorTypeModel      ErrorType = "model"
	ErrorTypeTraining   ErrorType = "training"
	ErrorTypeConfig     ErrorType = "configuration"
	ErrorTypeInternal   ErrorType = "internal"
)

// AppError represents an application-specific error with additional context
type AppError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s - %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is checks if the error matches the target
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Type == t.Type && e.Code == t.Code
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithDetails adds details to the error
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
	}
}

// WrapError wraps an existing error with application context
func WrapError(err error, errType ErrorType, code, message string) *AppError {
	return &AppError{
		Type:    errType,
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// NewDataSourceError creates a data source error
func NewDataSourceError(code, message string) *AppError {
	return NewAppError(ErrorTypeDataSource, code, message)
}

// NewDatasetError creates a dataset error
func NewDatasetError(code, message string) *AppError {
	return NewAppError(ErrorTypeDataset, code, message)
}

// NewModelError creates a model construction/dimension error
func NewModelError(code, message string) *AppError {
	return NewAppError(ErrorTypeModel, code, message)
}

// NewTrainingError creates a training error
func NewTrainingError(code, message string) *AppError {
	return NewAppError(ErrorTypeTraining, code, message)
}

// NewConfigError creates a configuration error
func NewConfigError(code, message string) *AppError {
	return NewAppError(ErrorTypeConfig, code, message)
}

// Error codes for different error scenarios
const (
	// Data source error codes
	CodeFetchFailed       = "FETCH_FAILED"
	CodeMalformedResponse = "MALFORMED_RESPONSE"
	CodeFeedRejected      = "FEED_REJECTED"

	// Dataset error codes
	CodeInsufficientData = "INSUFFICIENT_DATA"
	CodeUnfittedState    = "UNFITTED_STATE"
	CodeEmptySeries      = "EMPTY_SERIES"

	// Model error codes
	CodeDimensionMismatch = "DIMENSION_MISMATCH"

	// Training error codes
	CodeTrainingDiverged = "TRAINING_DIVERGED"

	// Configuration error codes
	CodeInvalidConfig = "INVALID_CONFIG"
)
