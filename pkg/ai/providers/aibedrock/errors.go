package aibedrock

import (
	"errors"
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

var (
	errorRegistry = errx.NewRegistry("BEDROCK")

	ErrAPIRequest      = errorRegistry.Register("API_REQUEST_FAILED", errx.TypeExternal, http.StatusBadGateway, "Bedrock request failed")
	ErrAPIResponse     = errorRegistry.Register("API_RESPONSE_INVALID", errx.TypeExternal, http.StatusBadGateway, "Unexpected Bedrock response")
	ErrAPIUnauthorized = errorRegistry.Register("API_UNAUTHORIZED", errx.TypeAuthorization, http.StatusUnauthorized, "Access to the Bedrock model was denied")
	ErrAPIRateLimit    = errorRegistry.Register("API_RATE_LIMIT", errx.TypeExternal, http.StatusTooManyRequests, "Bedrock request was throttled")
	ErrModelNotFound   = errorRegistry.Register("MODEL_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Bedrock model not found")
	ErrInvalidRequest  = errorRegistry.Register("INVALID_REQUEST", errx.TypeValidation, http.StatusBadRequest, "Bedrock rejected the request")
	ErrEmptyMessages   = errorRegistry.Register("EMPTY_MESSAGES", errx.TypeValidation, http.StatusBadRequest, "Messages cannot be empty")
	ErrUnsupportedRole = errorRegistry.Register("UNSUPPORTED_ROLE", errx.TypeValidation, http.StatusBadRequest, "Unsupported message role")
)

// ParseBedrockError maps the runtime's typed exceptions onto the BEDROCK
// registry.
func ParseBedrockError(err error) *errx.Error {
	if err == nil {
		return nil
	}

	var existing *errx.Error
	if errors.As(err, &existing) {
		return existing
	}

	var (
		denied    *types.AccessDeniedException
		throttled *types.ThrottlingException
		notFound  *types.ResourceNotFoundException
		invalid   *types.ValidationException
	)
	code := ErrAPIRequest
	switch {
	case errors.As(err, &denied):
		code = ErrAPIUnauthorized
	case errors.As(err, &throttled):
		code = ErrAPIRateLimit
	case errors.As(err, &notFound):
		code = ErrModelNotFound
	case errors.As(err, &invalid):
		code = ErrInvalidRequest
	}
	return errorRegistry.NewWithCause(code, err)
}
