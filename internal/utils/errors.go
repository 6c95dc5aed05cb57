package utils

import "github.com/gofiber/fiber/v2"

// APIError represents a structured API error
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string, status int) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

// WithMessage returns a copy of the error with a different message
func (e *APIError) WithMessage(message string) *APIError {
	return &APIError{Code: e.Code, Message: message, Status: e.Status}
}

// Common API errors. Authentication failures are deliberately uniform:
// the client is never told whether the token was missing, malformed,
// expired or revoked.
var (
	ErrInternalServer          = NewAPIError("INTERNAL_SERVER_ERROR", "An unexpected error occurred", fiber.StatusInternalServerError)
	ErrAuthenticationRequired  = NewAPIError("AUTHENTICATION_REQUIRED", "Authentication required", fiber.StatusUnauthorized)
	ErrInsufficientPermission  = NewAPIError("INSUFFICIENT_PERMISSION", "Insufficient permissions", fiber.StatusForbidden)
	ErrRateLimited             = NewAPIError("RATE_LIMITED", "Rate limit exceeded. Please try again later.", fiber.StatusTooManyRequests)
	ErrVersionConflict         = NewAPIError("VERSION_CONFLICT", "Version conflict detected. Please refresh and try again.", fiber.StatusConflict)
	ErrNotFound                = NewAPIError("NOT_FOUND", "Resource not found", fiber.StatusNotFound)
	ErrValidation              = NewAPIError("VALIDATION_ERROR", "Invalid request", fiber.StatusBadRequest)
	ErrUpstreamIdentityFailure = NewAPIError("UPSTREAM_IDENTITY_ERROR", "Identity provider rejected the request", fiber.StatusBadGateway)
)
