package aiazure

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("AZURE_OPENAI")

	ErrMissingEndpoint   = errorRegistry.Register("MISSING_ENDPOINT", errx.TypeValidation, http.StatusBadRequest, "Azure OpenAI endpoint is required")
	ErrMissingCredential = errorRegistry.Register("MISSING_CREDENTIAL", errx.TypeValidation, http.StatusBadRequest, "Azure OpenAI API key or token credential is required")
)
