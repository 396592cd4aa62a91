package aigemini

import (
	"net/http"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("GEMINI")

	ErrClientInit          = errorRegistry.Register("CLIENT_INIT_FAILED", errx.TypeValidation, http.StatusBadRequest, "Could not create Gemini client")
	ErrAPIRequest          = errorRegistry.Register("API_REQUEST_FAILED", errx.TypeExternal, http.StatusBadGateway, "Gemini request failed")
	ErrAPIResponse         = errorRegistry.Register("API_RESPONSE_INVALID", errx.TypeExternal, http.StatusBadGateway, "Gemini returned no candidates")
	ErrAPIUnauthorized     = errorRegistry.Register("API_UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Invalid Gemini credentials")
	ErrAPIRateLimit        = errorRegistry.Register("API_RATE_LIMIT", errx.TypeExternal, http.StatusTooManyRequests, "Gemini quota or rate limit exceeded")
	ErrEmptyMessages       = errorRegistry.Register("EMPTY_MESSAGES", errx.TypeValidation, http.StatusBadRequest, "Messages cannot be empty")
	ErrEmptyEmbeddingInput = errorRegistry.Register("EMPTY_EMBEDDING_INPUT", errx.TypeValidation, http.StatusBadRequest, "Embedding input cannot be empty")
	ErrNoEmbeddingReturned = errorRegistry.Register("NO_EMBEDDING_RETURNED", errx.TypeExternal, http.StatusBadGateway, "No embedding returned")
)

func ParseGeminiError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	var existing *errx.Error
	if errx.As(err, &existing) {
		return existing
	}

	lower := strings.ToLower(err.Error())
	code := ErrAPIRequest
	switch {
	case strings.Contains(lower, "api key") || strings.Contains(lower, "permission_denied") || strings.Contains(lower, "unauthenticated"):
		code = ErrAPIUnauthorized
	case strings.Contains(lower, "resource_exhausted") || strings.Contains(lower, "quota") || strings.Contains(lower, "429"):
		code = ErrAPIRateLimit
	}
	return errorRegistry.NewWithCause(code, err)
}
