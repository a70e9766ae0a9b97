package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode is the stable machine-readable code returned to clients.
type ErrorCode string

const (
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeConflict      ErrorCode = "CONFLICT"
	CodeValidation    ErrorCode = "VALIDATION_ERROR"
	CodeUnauthorized  ErrorCode = "UNAUTHORIZED"
	CodeForbidden     ErrorCode = "FORBIDDEN"
	CodeRateLimited   ErrorCode = "RATE_LIMITED"
	CodeAccountLocked ErrorCode = "ACCOUNT_LOCKED"
	CodeUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	CodeInternal      ErrorCode = "INTERNAL_ERROR"
)

var codeStatus = map[ErrorCode]int{
	CodeNotFound:      http.StatusNotFound,
	CodeConflict:      http.StatusConflict,
	CodeValidation:    http.StatusBadRequest,
	CodeUnauthorized:  http.StatusUnauthorized,
	CodeForbidden:     http.StatusForbidden,
	CodeRateLimited:   http.StatusTooManyRequests,
	CodeAccountLocked: http.StatusTooManyRequests,
	CodeUnavailable:   http.StatusServiceUnavailable,
	CodeInternal:      http.StatusInternalServerError,
}

// AppError is a portal failure carrying its client code and HTTP status.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
	Cause   error     `json:"-"`
}

func newAppError(code ErrorCode, msg string, cause error) *AppError {
	return &AppError{Code: code, Message: msg, Status: codeStatus[code], Cause: cause}
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError by code, so errors.Is(err, ErrConflict(""))
// holds for any conflict.
func (e *AppError) Is(target error) bool {
	var t *AppError
	return errors.As(target, &t) && t.Code == e.Code
}

// CodeOf returns the code of the first AppError in err's chain, or
// CodeInternal when there is none.
func CodeOf(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeInternal
}

func ErrNotFound(entity, id string) *AppError {
	return newAppError(CodeNotFound, fmt.Sprintf("%s %s not found", entity, id), nil)
}

func ErrConflict(msg string) *AppError { return newAppError(CodeConflict, msg, nil) }

func ErrValidation(msg string) *AppError { return newAppError(CodeValidation, msg, nil) }

func ErrUnauthorized(msg string) *AppError { return newAppError(CodeUnauthorized, msg, nil) }

func ErrForbidden(msg string) *AppError { return newAppError(CodeForbidden, msg, nil) }

func ErrRateLimited(msg string) *AppError { return newAppError(CodeRateLimited, msg, nil) }

// ErrAccountLocked is returned while a login key is in lockout.
func ErrAccountLocked(msg string) *AppError { return newAppError(CodeAccountLocked, msg, nil) }

// ErrUnavailable reports a record store failure at the network boundary.
func ErrUnavailable(msg string, cause error) *AppError {
	return newAppError(CodeUnavailable, msg, cause)
}

func ErrInternal(msg string, cause error) *AppError {
	return newAppError(CodeInternal, msg, cause)
}
