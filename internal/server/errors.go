package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	catalogdomain "github.com/indigobills/indigobills/internal/catalog/domain"
	clientdomain "github.com/indigobills/indigobills/internal/client/domain"
	invoicedomain "github.com/indigobills/indigobills/internal/invoice/domain"
	pkgdb "github.com/indigobills/indigobills/pkg/db"
	"gorm.io/gorm"
)

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError describes a single rejected field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationErrors aggregates field-level failures into one response.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Field+": "+e.Message)
	}
	return strings.Join(parts, "; ")
}

type errorPayload struct {
	Type    string           `json:"type"`
	Message string           `json:"message"`
	Fields  ValidationErrors `json:"fields,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

// AbortWithError records err on the gin context so the error handling
// middleware renders a single consistent body.
func AbortWithError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandlingMiddleware turns the last recorded error into a JSON
// response. Handlers never write error bodies themselves.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		status, payload := mapError(err)
		c.JSON(status, errorResponse{Error: payload})
	}
}

func mapError(err error) (int, errorPayload) {
	var fieldErrs ValidationErrors
	if errors.As(err, &fieldErrs) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "request validation failed",
			Fields:  fieldErrs,
		}
	}

	switch {
	case isValidationErr(err):
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: err.Error(),
		}

	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "missing or invalid credentials",
		}

	case isNotFoundErr(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: err.Error(),
		}

	case pkgdb.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: "resource already exists",
		}

	case errors.Is(err, invoicedomain.ErrCounterUninitialized):
		return http.StatusInternalServerError, errorPayload{
			Type:    "setup_error",
			Message: err.Error(),
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

func isValidationErr(err error) bool {
	return errors.Is(err, ErrInvalidRequest) ||
		errors.Is(err, clientdomain.ErrInvalidName) ||
		errors.Is(err, clientdomain.ErrInvalidID) ||
		errors.Is(err, catalogdomain.ErrMissingName) ||
		errors.Is(err, invoicedomain.ErrMissingClient) ||
		errors.Is(err, invoicedomain.ErrMissingProductName) ||
		errors.Is(err, invoicedomain.ErrInvalidID)
}

func isNotFoundErr(err error) bool {
	return errors.Is(err, invoicedomain.ErrNotFound) ||
		errors.Is(err, clientdomain.ErrNotFound) ||
		errors.Is(err, catalogdomain.ErrNotFound) ||
		errors.Is(err, gorm.ErrRecordNotFound)
}

func invalidRequestError(message string) error {
	return ValidationErrors{{Field: "body", Message: message}}
}
