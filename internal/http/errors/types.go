package errors

import (
	"fmt"
	"net/http"
)

// AppError es el error estándar del edge HTTP.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Detail     string `json:"detail,omitempty"`
	HTTPStatus int    `json:"-"`
	Err        error  `json:"-"` // causa, solo para logs
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error { return e.Err }

func New(status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status}
}

func Wrap(err error, status int, code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// FromError convierte cualquier error en AppError. Lo que no lo es termina
// como 500 conservando la causa.
func FromError(err error) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return ErrInternalServerError.WithCause(err)
}

// WithDetail devuelve una COPIA con el detalle, para no mutar las globales.
func (e *AppError) WithDetail(detail string) *AppError {
	cp := *e
	cp.Detail = detail
	return &cp
}

// WithCause devuelve una copia con la causa original.
func (e *AppError) WithCause(err error) *AppError {
	cp := *e
	cp.Err = err
	return &cp
}

// 4xx
var (
	ErrBadRequest       = New(http.StatusBadRequest, "BAD_REQUEST", "The request is invalid")
	ErrInvalidJSON      = New(http.StatusBadRequest, "INVALID_JSON", "The request body is not valid JSON")
	ErrMissingFields    = New(http.StatusBadRequest, "MISSING_FIELDS", "Required fields are missing")
	ErrInvalidParameter = New(http.StatusBadRequest, "INVALID_PARAMETER", "A parameter is invalid")
	ErrBodyTooLarge     = New(http.StatusRequestEntityTooLarge, "BODY_TOO_LARGE", "The request body is too large")

	ErrUnsupportedMediaType = New(http.StatusUnsupportedMediaType, "UNSUPPORTED_MEDIA_TYPE", "Content-Type must be application/json")

	ErrUnauthorized = New(http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required")
	ErrTokenInvalid = New(http.StatusUnauthorized, "TOKEN_INVALID", "The bearer token is invalid or expired")

	ErrNotFound          = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrMethodNotAllowed  = New(http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed")
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Too many requests, try again later")
)

// 5xx
var (
	ErrInternalServerError = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
	ErrBadGateway          = New(http.StatusBadGateway, "BAD_GATEWAY", "Upstream provider returned an error")
	ErrServiceUnavailable  = New(http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "Service unavailable")
	ErrGatewayTimeout      = New(http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "Upstream provider timed out")
)
