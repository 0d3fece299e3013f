package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeValidation      Code = "VALIDATION_ERROR"
	CodeUnauthorized    Code = "UNAUTHORIZED"
	CodeForbidden       Code = "FORBIDDEN"
	CodeNotFound        Code = "NOT_FOUND"
	CodeConflict        Code = "CONFLICT"
	CodePayloadTooLarge Code = "PAYLOAD_TOO_LARGE"
	CodeStateConflict   Code = "STATE_CONFLICT"
	CodeIdempotency     Code = "IDEMPOTENCY_KEY_REUSED"
	CodeRateLimit       Code = "RATE_LIMIT_EXCEEDED"
	CodeInternal        Code = "INTERNAL_ERROR"
	CodeNotConfigured   Code = "NOT_CONFIGURED"
	CodeDependency      Code = "DEPENDENCY_ERROR"
)

// Metadata describes how a code is surfaced over HTTP.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

func meta(status int, retryable bool, public string, details bool) Metadata {
	return Metadata{HTTPStatus: status, Retryable: retryable, PublicMessage: public, DetailsAllowed: details}
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:      meta(http.StatusBadRequest, false, "validation failed", true),
	CodeUnauthorized:    meta(http.StatusUnauthorized, false, "authentication required", false),
	CodeForbidden:       meta(http.StatusForbidden, false, "access denied", false),
	CodeNotFound:        meta(http.StatusNotFound, false, "resource not found", false),
	CodeConflict:        meta(http.StatusConflict, false, "conflict detected", false),
	CodePayloadTooLarge: meta(http.StatusRequestEntityTooLarge, false, "payload too large", true),
	CodeStateConflict:   meta(http.StatusUnprocessableEntity, false, "state transition disallowed", true),
	CodeIdempotency:     meta(http.StatusConflict, false, "idempotency key reused", true),
	CodeRateLimit:       meta(http.StatusTooManyRequests, false, "rate limit exceeded", false),
	CodeInternal:        meta(http.StatusInternalServerError, true, "internal server error", false),
	CodeNotConfigured:   meta(http.StatusInternalServerError, false, "service not configured", false),
	CodeDependency:      meta(http.StatusServiceUnavailable, true, "dependency unavailable", true),
}

// MetadataFor falls back to the internal error metadata for unknown codes.
func MetadataFor(code Code) Metadata {
	if m, ok := metadataByCode[code]; ok {
		return m
	}
	return metadataByCode[CodeInternal]
}

// StatusOf maps any error to its HTTP status. Untyped errors are 500s.
func StatusOf(err error) int {
	typed := As(err)
	if typed == nil {
		return http.StatusInternalServerError
	}
	return MetadataFor(typed.Code()).HTTPStatus
}

type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return &Error{code: code, message: fmt.Sprintf(format, args...)}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.Code() == code
}
