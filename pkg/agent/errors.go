package agent

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("AGENT")

var (
	ErrNotFound         = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Agent not found")
	ErrInvalidInput     = ErrRegistry.Register("INVALID_INPUT", errx.TypeValidation, http.StatusBadRequest, "Input is missing prompt variables")
	ErrInvalidBody      = ErrRegistry.Register("INVALID_BODY", errx.TypeValidation, http.StatusBadRequest, "Invalid request body")
	ErrStoreFailure     = ErrRegistry.Register("STORE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Agent store operation failed")
	ErrRuntimeFailure   = ErrRegistry.Register("RUNTIME_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Agent run failed")
	ErrMalformedResult  = ErrRegistry.Register("MALFORMED_RESULT", errx.TypeInternal, http.StatusInternalServerError, "Agent run produced no output")
	ErrUnknownStrategy  = ErrRegistry.Register("UNKNOWN_STRATEGY", errx.TypeInternal, http.StatusInternalServerError, "Unknown agent type")
	ErrDocumentNotFound = ErrRegistry.Register("DOCUMENT_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Agent document not found")
	ErrNoneFound        = ErrRegistry.Register("NONE_FOUND", errx.TypeInternal, http.StatusInternalServerError, "No agents found")
)

var promptRegistry = errx.NewRegistry("PROMPT")

var ErrPromptNotFound = promptRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Prompt not found")

// StoreFailure wraps a persistence error. The cause text is exposed in
// details.error.
func StoreFailure(err error) error {
	if err == nil {
		return nil
	}
	if errx.IsCode(err, ErrNotFound) || errx.IsCode(err, ErrPromptNotFound) || errx.IsCode(err, ErrDocumentNotFound) {
		return err
	}
	return ErrRegistry.NewWithCause(ErrStoreFailure, err).WithDetail("error", err.Error())
}

// StoreFailuref is a store failure with a custom message.
func StoreFailuref(message string) error {
	return ErrRegistry.NewWithMessage(ErrStoreFailure, message).WithDetail("error", message)
}

func NotFound(id string) error {
	return ErrRegistry.New(ErrNotFound).WithDetail("agent_id", id)
}

func PromptNotFound(id string) error {
	return promptRegistry.New(ErrPromptNotFound).WithDetail("prompt_id", id)
}

// RuntimeFailure wraps an error raised while running an agent.
func RuntimeFailure(err error) error {
	if err == nil {
		return nil
	}
	for _, code := range []*errx.ErrorCode{ErrInvalidInput, ErrUnknownStrategy, ErrMalformedResult, ErrRuntimeFailure} {
		if errx.IsCode(err, code) {
			return err
		}
	}
	return ErrRegistry.NewWithCause(ErrRuntimeFailure, err).WithDetail("reason", err.Error())
}

func IsNotFound(err error) bool {
	return errx.IsCode(err, ErrNotFound)
}
