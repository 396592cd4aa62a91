package document

import (
	"net/http"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("DOCUMENT")

var (
	ErrFetchFailed         = ErrRegistry.Register("FETCH_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to fetch document source")
	ErrParseFailed         = ErrRegistry.Register("PARSE_FAILED", errx.TypeValidation, http.StatusUnprocessableEntity, "Failed to parse document source")
	ErrInvalidSource       = ErrRegistry.Register("INVALID_SOURCE", errx.TypeValidation, http.StatusBadRequest, "Invalid document source")
	ErrUnsupportedSplitter = ErrRegistry.Register("UNSUPPORTED_SPLITTER", errx.TypeValidation, http.StatusBadRequest, "Unsupported splitter type")
	ErrEmbedFailed         = ErrRegistry.Register("EMBED_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to embed document chunks")
	ErrStoreFailed         = ErrRegistry.Register("STORE_FAILED", errx.TypeExternal, http.StatusBadGateway, "Failed to write document chunks")
)
