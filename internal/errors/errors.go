package errors

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// AppError represents an application error
type AppError struct {
	Code    int               `json:"-"`     // HTTP status code
	Message string            `json:"error"` // Error message
	Fields  map[string]string `json:"fields,omitempty"`
	Err     error             `json:"-"` // Original error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the original error
func (e *AppError) Unwrap() error {
	return e.Err
}

// WithMessage returns a copy of the AppError with a custom message
func (e *AppError) WithMessage(msg string) *AppError {
	return &AppError{
		Code:    e.Code,
		Message: msg,
		Fields:  e.Fields,
		Err:     e.Err,
	}
}

// NewAppError creates a new application error
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return NewAppError(http.StatusBadRequest, message, err)
}

func Unauthorized(message string, err error) *AppError {
	return NewAppError(http.StatusUnauthorized, message, err)
}

func Forbidden(message string, err error) *AppError {
	return NewAppError(http.StatusForbidden, message, err)
}

func NotFound(message string, err error) *AppError {
	return NewAppError(http.StatusNotFound, message, err)
}

func Conflict(message string, err error) *AppError {
	return NewAppError(http.StatusConflict, message, err)
}

func UnprocessableEntity(message string, err error) *AppError {
	return NewAppError(http.StatusUnprocessableEntity, message, err)
}

func Internal(err error) *AppError {
	return NewAppError(http.StatusInternalServerError, "Internal server error", err)
}

// NewValidationError converts binding errors into a 400 with one message per field.
func NewValidationError(err error) *AppError {
	appErr := BadRequest("Invalid input", err)
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		appErr.Fields = make(map[string]string, len(validationErrors))
		for _, fe := range validationErrors {
			appErr.Fields[fe.Field()] = "failed on '" + fe.Tag() + "'"
		}
	}
	return appErr
}

// As reports whether err carries an AppError and returns it.
func As(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
