package fsxs3

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFS(t *testing.T, h http.HandlerFunc) *S3FileSystem {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	client := s3.New(s3.Options{
		Region:       "us-east-1",
		BaseEndpoint: aws.String(srv.URL),
		UsePathStyle: true,
		Credentials:  aws.AnonymousCredentials{},
	})
	return NewS3FileSystem(client, "docs", "superagent")
}

func TestReadFile(t *testing.T) {
	var gotPath string
	fs := newFS(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_, _ = w.Write([]byte("file body"))
	})

	data, err := fs.ReadFile(context.Background(), "uploads/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "file body", string(data))
	assert.Equal(t, "/docs/superagent/uploads/a.txt", gotPath)
}

func TestReadFileNotFound(t *testing.T) {
	fs := newFS(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`))
	})

	_, err := fs.ReadFile(context.Background(), "uploads/missing.txt")
	assert.True(t, errx.IsCode(err, fsx.ErrNotFound))
}

func TestURI(t *testing.T) {
	fs := NewS3FileSystem(nil, "docs", "superagent")
	assert.Equal(t, "s3://docs/superagent/uploads/a.pdf", fs.URI("uploads/a.pdf"))
}
