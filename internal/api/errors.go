package api

import (
	"errors"
	"fmt"
	"net/http"

	"rwa-registry-go/internal/registry"
	"rwa-registry-go/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var (
	// ErrInvalidInput marks malformed requests rejected before reaching the registry
	ErrInvalidInput = errors.New("invalid input")
	// ErrJournalUnavailable is returned when the audit journal is not persisted
	ErrJournalUnavailable = errors.New("event journal unavailable")
)

func invalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// ErrorCode represents a standardized error code
type ErrorCode string

const (
	// Client errors (4xx)
	errCodeBadRequest    ErrorCode = "bad_request"
	errCodeNotFound      ErrorCode = "not_found"
	errCodeConflict      ErrorCode = "conflict"
	errCodeRuleViolation ErrorCode = "rule_violation"
	errCodeUnauthorized  ErrorCode = "unauthorized"
	errCodeRateLimited   ErrorCode = "rate_limited"

	// Server errors (5xx)
	errCodeInternalError ErrorCode = "internal_error"
	errCodeUnavailable   ErrorCode = "service_unavailable"
)

// APIError represents a structured API error that carries error code and details
type APIError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// errorResponse represents a standardized error response
type errorResponse struct {
	Error *APIError `json:"error"`
}

var notFoundErrors = []error{
	registry.ErrAssetNotFound,
	registry.ErrInvestorNotFound,
	registry.ErrDistributionNotFound,
}

var conflictErrors = []error{
	registry.ErrAlreadyInitialized,
	registry.ErrAlreadyClaimed,
	store.ErrConcurrentModification,
}

// classify maps an error to its HTTP status and API error body
func classify(err error) (int, *APIError) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return http.StatusBadRequest, &APIError{Code: errCodeBadRequest, Message: "Invalid request", Details: err.Error()}
	case matchesAny(err, notFoundErrors):
		return http.StatusNotFound, &APIError{Code: errCodeNotFound, Message: rootMessage(err, notFoundErrors)}
	case matchesAny(err, conflictErrors):
		return http.StatusConflict, &APIError{Code: errCodeConflict, Message: rootMessage(err, conflictErrors)}
	case registry.IsValidationError(err):
		return http.StatusUnprocessableEntity, &APIError{Code: errCodeRuleViolation, Message: err.Error()}
	case errors.Is(err, ErrJournalUnavailable):
		return http.StatusServiceUnavailable, &APIError{Code: errCodeUnavailable, Message: err.Error()}
	default:
		return http.StatusInternalServerError, &APIError{Code: errCodeInternalError, Message: "Internal server error"}
	}
}

func matchesAny(err error, targets []error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// rootMessage returns the contract message of the matched sentinel, not the
// wrapped chain.
func rootMessage(err error, targets []error) string {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return err.Error()
}

// respondError sends the standardized error response for err
func respondError(c *gin.Context, err error) {
	status, apiErr := classify(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("Request failed",
			zap.String("path", c.FullPath()),
			zap.Int("status", status),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, errorResponse{Error: apiErr})
}

// respondBadRequest sends a 400 Bad Request response
func respondBadRequest(c *gin.Context, message string, details ...string) {
	apiErr := &APIError{Code: errCodeBadRequest, Message: message}
	if len(details) > 0 {
		apiErr.Details = details[0]
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{Error: apiErr})
}

// respondNotFound sends a 404 Not Found response
func respondNotFound(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusNotFound, errorResponse{Error: &APIError{Code: errCodeNotFound, Message: message}})
}
