package errx_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testRegistry = errx.NewRegistry("TEST")
	codeMissing  = testRegistry.Register("MISSING", errx.TypeNotFound, http.StatusNotFound, "missing thing")
)

func TestRegistryPrefixesCodes(t *testing.T) {
	err := testRegistry.New(codeMissing)
	assert.Equal(t, "TEST_MISSING", err.Code)
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus)
	assert.True(t, errx.IsCode(err, codeMissing))

	got, ok := testRegistry.Get("MISSING")
	require.True(t, ok)
	assert.Same(t, codeMissing, got)
}

func TestWrapKeepsRegisteredCode(t *testing.T) {
	base := testRegistry.New(codeMissing).WithDetail("id", "a1")
	wrapped := errx.Wrap(base, "lookup failed", errx.TypeInternal)

	assert.Equal(t, "TEST_MISSING", wrapped.Code)
	assert.Equal(t, "a1", wrapped.Details["id"])
	assert.True(t, errors.Is(wrapped, base))
}

func TestToHTTPResponse(t *testing.T) {
	status, body := errx.ToHTTPResponse(errors.New("boom"), "req-1")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "boom", body.Error)
	assert.Equal(t, "req-1", body.RequestID)

	status, body = errx.ToHTTPResponse(testRegistry.NewWithCause(codeMissing, errors.New("db")), "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "TEST_MISSING", body.Code)
}
