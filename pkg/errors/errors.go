package errors

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"
	CodeAborted  = "TRANSACTION_ABORTED"
)

type AppError struct {
	Code    string
	Message string
	Status  int
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func New(code string, message string, status int, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

func NotFound(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
		Err:     err,
	}
}

func BadRequest(message string, err error) *AppError {
	return &AppError{
		Code:    "BAD_REQUEST",
		Message: message,
		Status:  http.StatusBadRequest,
		Err:     err,
	}
}

func Unauthorized(message string, err error) *AppError {
	return &AppError{
		Code:    "UNAUTHORIZED",
		Message: message,
		Status:  http.StatusUnauthorized,
		Err:     err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: message,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func Forbidden(message string, err error) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Message: message,
		Status:  http.StatusForbidden,
		Err:     err,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func TooManyRequests(message string) *AppError {
	return &AppError{
		Code:    "TOO_MANY_REQUESTS",
		Message: message,
		Status:  http.StatusTooManyRequests,
		Err:     nil,
	}
}

// Aborted reports a transaction whose precondition failed against the stored record.
// Nothing was written.
func Aborted(reason string) *AppError {
	return &AppError{
		Code:    CodeAborted,
		Message: reason,
		Status:  http.StatusConflict,
		Err:     nil,
	}
}

func IsAborted(err error) bool {
	return Is(err, CodeAborted)
}

func IsNotFound(err error) bool {
	return Is(err, CodeNotFound)
}

// Outcome collapses an operation result into a success flag and a human readable message.
func Outcome(err error) (bool, string) {
	if err == nil {
		return true, "OK"
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Err != nil && appErr.Status >= http.StatusInternalServerError {
			return false, fmt.Sprintf("%s: %v", appErr.Message, appErr.Err)
		}
		return false, appErr.Message
	}
	return false, err.Error()
}
