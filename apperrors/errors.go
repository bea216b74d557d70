package apperrors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Wrap attaches a cause to a predeclared error without mutating it.
func Wrap(base *Error, err error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Err:     err,
	}
}

// Is lets errors.Is match a wrapped copy against the predeclared value.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Common error types
var (
	ErrBadRequest     = New(http.StatusBadRequest, "Bad request", nil)
	ErrUnauthorized   = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrNotFound       = New(http.StatusNotFound, "Not found", nil)
	ErrInternalServer = New(http.StatusInternalServerError, "Internal server error", nil)
)

// Cart and checkout error types
var (
	ErrInvalidPayload  = New(http.StatusBadRequest, "Invalid payload", nil)
	ErrEmptySelection  = New(http.StatusBadRequest, "No items selected for checkout", nil)
	ErrProductNotFound = New(http.StatusNotFound, "Product not found", nil)
	ErrStorageWrite    = New(http.StatusServiceUnavailable, "Failed to persist cart state", nil)
	ErrPaymentFailed   = New(http.StatusBadGateway, "Payment provider error", nil)
)

// Respond writes err as a JSON response, mapping unknown errors to 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Wrap(ErrInternalServer, err)
	}
	c.JSON(appErr.Code, gin.H{"error": appErr.Message})
}
