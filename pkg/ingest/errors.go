package ingest

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("INGEST")

var (
	CodeDocumentNotFound = ErrRegistry.Register("DOCUMENT_NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "Document not found")
	CodeFailed           = ErrRegistry.Register("FAILED", errx.TypeInternal, http.StatusInternalServerError, "Document ingestion failed")
	CodeUnsupportedType  = ErrRegistry.Register("UNSUPPORTED_TYPE", errx.TypeValidation, http.StatusBadRequest, "Unsupported document type")
	CodeInvalidDocument  = ErrRegistry.Register("INVALID_DOCUMENT", errx.TypeValidation, http.StatusBadRequest, "Invalid document")
	CodeStoreFailure     = ErrRegistry.Register("STORE_FAILURE", errx.TypeInternal, http.StatusInternalServerError, "Document store failure")
)

func ErrDocumentNotFound(id string) *errx.Error {
	return ErrRegistry.New(CodeDocumentNotFound).WithDetail("document_id", id)
}

func ErrUnsupportedType(t string) *errx.Error {
	return ErrRegistry.New(CodeUnsupportedType).WithDetail("type", t)
}

// ErrFailed wraps the cause of a failed ingestion.
func ErrFailed(id string, err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeFailed, err).WithDetail("document_id", id)
}

func ErrStoreFailure(err error) *errx.Error {
	return ErrRegistry.NewWithCause(CodeStoreFailure, err).WithDetail("error", err.Error())
}

func invalid(reason string) *errx.Error {
	return ErrRegistry.New(CodeInvalidDocument).WithDetail("reason", reason)
}
