package errors

import (
	"errors"
	"fmt"

	"switchrecon/pkg/contracts/domain"
)

// ErrorType represents the type of error
type ErrorType string

// Reconciliation failure classes. Only MissingInput and Catastrophic stop a
// run; the other classes are absorbed and reported as warnings.
const (
	ErrTypeMissingInput   ErrorType = "MISSING_INPUT"
	ErrTypeOptionalSource ErrorType = "OPTIONAL_SOURCE"
	ErrTypeUnresolvable   ErrorType = "UNRESOLVABLE"
	ErrTypeMalformed      ErrorType = "MALFORMED"
	ErrTypeCatastrophic   ErrorType = "CATASTROPHIC"
)

// Service error classes
const (
	ErrTypeValidation ErrorType = "VALIDATION"
	ErrTypeNotFound   ErrorType = "NOT_FOUND"
	ErrTypeConflict   ErrorType = "CONFLICT"
	ErrTypeConfig     ErrorType = "CONFIG"
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

// NewMissingInputError reports an absent required input; the run never starts
func NewMissingInputError(input string) *AppError {
	return NewAppError(ErrTypeMissingInput, fmt.Sprintf("%s is required", input), nil).
		WithContext("input", input)
}

// NewOptionalSourceError reports a secondary file or column that was skipped
func NewOptionalSourceError(source, message string) *AppError {
	return NewAppError(ErrTypeOptionalSource, message, nil).WithContext("source", source)
}

// NewUnresolvableError reports a header or sheet that could not be located
func NewUnresolvableError(source, message string) *AppError {
	return NewAppError(ErrTypeUnresolvable, message, nil).WithContext("source", source)
}

// NewMalformedError reports row data that could not be interpreted
func NewMalformedError(source, message string) *AppError {
	return NewAppError(ErrTypeMalformed, message, nil).WithContext("source", source)
}

// NewCatastrophicError reports a failure that aborts the whole run
func NewCatastrophicError(message string, cause error) *AppError {
	return NewAppError(ErrTypeCatastrophic, message, cause)
}

// NewAppValidationError creates a validation error for AppError type
func NewAppValidationError(message string) *AppError {
	return NewAppError(ErrTypeValidation, message, nil)
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *AppError {
	return NewAppError(ErrTypeNotFound, fmt.Sprintf("%s not found", resource), nil)
}

// NewConflictError creates a conflict error
func NewConflictError(message string) *AppError {
	return NewAppError(ErrTypeConflict, message, nil)
}

// NewConfigError creates a configuration error
func NewConfigError(message string, cause error) *AppError {
	return NewAppError(ErrTypeConfig, message, cause)
}

// TypeOf returns the ErrorType of the first AppError in err's chain
func TypeOf(err error) (ErrorType, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type, true
	}
	return "", false
}

// IsFatal reports whether err must stop a reconciliation run. Errors outside
// the taxonomy are treated as fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	t, ok := TypeOf(err)
	if !ok {
		return true
	}
	switch t {
	case ErrTypeOptionalSource, ErrTypeUnresolvable, ErrTypeMalformed:
		return false
	default:
		return true
	}
}

// Warning converts a non-fatal error into the form reported with a run
func (e *AppError) Warning() domain.Warning {
	source, _ := e.Context["source"].(string)
	return domain.Warning{
		Kind:    string(e.Type),
		Source:  source,
		Message: e.Message,
	}
}
