package vstpgvector

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var (
	errorRegistry = errx.NewRegistry("PGVECTOR")

	ErrQueryFailed        = errorRegistry.Register("QUERY_FAILED", errx.TypeInternal, http.StatusInternalServerError, "pgvector query failed")
	ErrInvalidDimension   = errorRegistry.Register("INVALID_DIMENSION", errx.TypeValidation, http.StatusBadRequest, "Vector dimension does not match the index")
	ErrInvalidFilterField = errorRegistry.Register("INVALID_FILTER_FIELD", errx.TypeValidation, http.StatusBadRequest, "Invalid metadata filter")
)

func dbError(err error, op string) *errx.Error {
	return errorRegistry.NewWithCause(ErrQueryFailed, err).WithDetail("operation", op)
}
