package aianthropic

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("ANTHROPIC")

	ErrAPIRequest            = errorRegistry.Register("API_REQUEST_FAILED", errx.TypeExternal, http.StatusBadGateway, "Anthropic request failed")
	ErrAPIUnauthorized       = errorRegistry.Register("API_UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or missing Anthropic API key")
	ErrAPIRateLimit          = errorRegistry.Register("API_RATE_LIMIT", errx.TypeExternal, http.StatusTooManyRequests, "Anthropic rate limit exceeded")
	ErrAPIOverloaded         = errorRegistry.Register("API_OVERLOADED", errx.TypeExternal, http.StatusServiceUnavailable, "Anthropic API overloaded")
	ErrContextLengthExceeded = errorRegistry.Register("CONTEXT_LENGTH_EXCEEDED", errx.TypeValidation, http.StatusBadRequest, "Prompt exceeds model context window")
	ErrMissingAPIKey         = errorRegistry.Register("MISSING_API_KEY", errx.TypeValidation, http.StatusBadRequest, "Anthropic API key is required")
	ErrEmptyMessages         = errorRegistry.Register("EMPTY_MESSAGES", errx.TypeValidation, http.StatusBadRequest, "Messages cannot be empty")
	ErrUnsupportedRole       = errorRegistry.Register("UNSUPPORTED_ROLE", errx.TypeValidation, http.StatusBadRequest, "Unsupported message role")
)

// ParseAnthropicError classifies an SDK error by its message.
func ParseAnthropicError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	var existing *errx.Error
	if errx.As(err, &existing) {
		return existing
	}

	lower := strings.ToLower(err.Error())

	var code *errx.ErrorCode
	switch {
	case strings.Contains(lower, "invalid x-api-key") || strings.Contains(lower, "authentication"):
		code = ErrAPIUnauthorized
	case strings.Contains(lower, "rate_limit") || strings.Contains(lower, "rate limit"):
		code = ErrAPIRateLimit
	case strings.Contains(lower, "overloaded"):
		code = ErrAPIOverloaded
	case strings.Contains(lower, "prompt is too long") || strings.Contains(lower, "context"):
		code = ErrContextLengthExceeded
	default:
		code = ErrAPIRequest
	}
	return errorRegistry.NewWithCause(code, err)
}
