package apierrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error kinds. Domain errors wrap one of these so handlers can map them to a status.
var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrConflict         = errors.New("conflict")
	ErrUnauthenticated  = errors.New("unauthenticated")
)

// Error is a domain error with a message safe to show to the caller.
type Error struct {
	kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.kind }

// New creates an Error of the given kind.
func New(kind error, message string) error {
	return &Error{kind: kind, Message: message}
}

// Newf creates an Error of the given kind with a formatted message.
func Newf(kind error, format string, args ...interface{}) error {
	return &Error{kind: kind, Message: fmt.Sprintf(format, args...)}
}

// JsonErr represents the JSON structure for api errors.
type JsonErr struct {
	ErrDetails Err `json:"error"`
}

// Err represents the error with a code, a machine readable kind and a message.
type Err struct {
	Code    int    `json:"code"`
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (e JsonErr) Error() string {
	return fmt.Sprintf("Code: %d, Message: %s", e.ErrDetails.Code, e.ErrDetails.Message)
}

// Status maps an error to its HTTP status code.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Kind returns the machine readable kind of an error.
func Kind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrConflict):
		return "conflict"
	case errors.Is(err, ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}

// Build converts err into the JSON error payload. Unexpected errors get a generic message.
func Build(err error) JsonErr {
	code := Status(err)
	message := "internal server error"
	var domainErr *Error
	if code != http.StatusInternalServerError && errors.As(err, &domainErr) {
		message = domainErr.Message
	} else if code != http.StatusInternalServerError {
		message = err.Error()
	}
	return JsonErr{ErrDetails: Err{Code: code, Kind: Kind(err), Message: message}}
}

// Respond writes err as a JSON error response and aborts the request.
func Respond(c *gin.Context, err error) {
	payload := Build(err)
	if payload.ErrDetails.Code == http.StatusInternalServerError {
		zap.L().Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(payload.ErrDetails.Code, payload)
}
