package aiopenai

import (
	"errors"
	"net/http"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/openai/openai-go/v3"
)

var (
	errorRegistry = errx.NewRegistry("OPENAI")

	ErrAPIRequest            = errorRegistry.Register("API_REQUEST_FAILED", errx.TypeExternal, http.StatusBadGateway, "OpenAI request failed")
	ErrAPIUnauthorized       = errorRegistry.Register("API_UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid or missing OpenAI API key")
	ErrAPIRateLimit          = errorRegistry.Register("API_RATE_LIMIT", errx.TypeExternal, http.StatusTooManyRequests, "OpenAI rate limit exceeded")
	ErrContextLengthExceeded = errorRegistry.Register("CONTEXT_LENGTH_EXCEEDED", errx.TypeValidation, http.StatusBadRequest, "Context length exceeds model maximum")
	ErrMissingAPIKey         = errorRegistry.Register("MISSING_API_KEY", errx.TypeValidation, http.StatusBadRequest, "OpenAI API key is required")
	ErrEmptyMessages         = errorRegistry.Register("EMPTY_MESSAGES", errx.TypeValidation, http.StatusBadRequest, "Messages cannot be empty")
	ErrUnsupportedRole       = errorRegistry.Register("UNSUPPORTED_ROLE", errx.TypeValidation, http.StatusBadRequest, "Unsupported message role")
	ErrNoChoices             = errorRegistry.Register("NO_CHOICES", errx.TypeExternal, http.StatusBadGateway, "No choices in OpenAI response")
	ErrEmptyEmbeddingInput   = errorRegistry.Register("EMPTY_EMBEDDING_INPUT", errx.TypeValidation, http.StatusBadRequest, "Embedding input cannot be empty")
	ErrNoEmbeddingReturned   = errorRegistry.Register("NO_EMBEDDING_RETURNED", errx.TypeExternal, http.StatusBadGateway, "No embedding returned")
)

// ParseOpenAIError maps SDK errors onto the OPENAI registry.
func ParseOpenAIError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	var existing *errx.Error
	if errors.As(err, &existing) {
		return existing
	}

	code := ErrAPIRequest
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			code = ErrAPIUnauthorized
		case http.StatusTooManyRequests:
			code = ErrAPIRateLimit
		}
	}
	if lower := strings.ToLower(err.Error()); strings.Contains(lower, "context length") || strings.Contains(lower, "maximum context") {
		code = ErrContextLengthExceeded
	}

	return errorRegistry.NewWithCause(code, err)
}
