package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels every AppError unwraps to, so callers can branch with errors.Is.
var (
	ErrNotFound       = errors.New("resource not found")
	ErrAlreadyExists  = errors.New("resource already exists")
	ErrInvalidInput   = errors.New("invalid input")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInternal       = errors.New("internal error")
	ErrConflict       = errors.New("conflict")
	ErrServiceUnavail = errors.New("service unavailable")
	ErrPaymentFailed  = errors.New("payment failed")
	ErrRateLimited    = errors.New("rate limited")
)

// AppError is an error that knows its public code and HTTP status.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func newAppError(status int, code, message string, sentinel error) *AppError {
	return &AppError{Code: code, Message: message, Status: status, Err: sentinel}
}

// NotFound creates a 404 error for the given resource and key.
func NotFound(resource, id string) *AppError {
	return newAppError(http.StatusNotFound, "NOT_FOUND",
		fmt.Sprintf("%s with id %s not found", resource, id), ErrNotFound)
}

// AlreadyExists creates a 409 error for a uniqueness violation.
func AlreadyExists(resource, field, value string) *AppError {
	return newAppError(http.StatusConflict, "ALREADY_EXISTS",
		fmt.Sprintf("%s with %s %q already exists", resource, field, value), ErrAlreadyExists)
}

// Conflict creates a 409 error for a state conflict such as an illegal
// status transition or a merge that is already running.
func Conflict(message string) *AppError {
	return newAppError(http.StatusConflict, "CONFLICT", message, ErrConflict)
}

// InvalidInput creates a 400 error.
func InvalidInput(message string) *AppError {
	return newAppError(http.StatusBadRequest, "INVALID_INPUT", message, ErrInvalidInput)
}

// Unauthorized creates a 401 error.
func Unauthorized(message string) *AppError {
	return newAppError(http.StatusUnauthorized, "UNAUTHORIZED", message, ErrUnauthorized)
}

// Forbidden creates a 403 error.
func Forbidden(message string) *AppError {
	return newAppError(http.StatusForbidden, "FORBIDDEN", message, ErrForbidden)
}

// RateLimited creates a 429 error.
func RateLimited() *AppError {
	return newAppError(http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", ErrRateLimited)
}

// Unavailable creates a 503 error for a downstream dependency that is down.
func Unavailable(dependency string, err error) *AppError {
	return &AppError{
		Code:    "SERVICE_UNAVAILABLE",
		Message: dependency + " is temporarily unavailable",
		Status:  http.StatusServiceUnavailable,
		Err:     errors.Join(ErrServiceUnavail, err),
	}
}

// Internal creates a 500 error. The wrapped error is never shown to clients.
func Internal(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
		Status:  http.StatusInternalServerError,
		Err:     errors.Join(ErrInternal, err),
	}
}

// PaymentFailed creates a 422 error for a declined or unverifiable payment.
func PaymentFailed(message string) *AppError {
	return newAppError(http.StatusUnprocessableEntity, "PAYMENT_FAILED", message, ErrPaymentFailed)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	return fmt.Errorf("%s: %w", message, err)
}

// HTTPStatus returns the HTTP status code for the given error.
func HTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}

	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrAlreadyExists), errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrPaymentFailed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrServiceUnavail):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
