package common

import "net/http"

// AppError is the application error type carried from services to handlers.
// Code is a stable machine-readable identifier; StatusCode maps it to HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewNotFoundError creates a 404 error
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{Code: "not_found", Message: message, StatusCode: http.StatusNotFound, Err: err}
}

// NewBadRequestError creates a 400 error
func NewBadRequestError(message string, err error) *AppError {
	return &AppError{Code: "bad_request", Message: message, StatusCode: http.StatusBadRequest, Err: err}
}

// NewForbiddenError creates a 403 error
func NewForbiddenError(message string) *AppError {
	return &AppError{Code: "forbidden", Message: message, StatusCode: http.StatusForbidden}
}

// NewConflictError creates a 409 error with a caller-supplied code
func NewConflictError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: http.StatusConflict}
}

// NewUnprocessableError creates a 422 error with a caller-supplied code
func NewUnprocessableError(code, message string) *AppError {
	return &AppError{Code: code, Message: message, StatusCode: http.StatusUnprocessableEntity}
}

// NewInternalServerError creates a 500 error
func NewInternalServerError(message string) *AppError {
	return &AppError{Code: "internal_error", Message: message, StatusCode: http.StatusInternalServerError}
}
