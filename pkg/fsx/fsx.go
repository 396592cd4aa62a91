// Package fsx abstracts where uploaded document files live. Paths are
// slash-separated keys relative to the storage root.
package fsx

import (
	"context"
	"io"
	"net/http"
	"path"
	"strings"

	"github.com/Abraxas-365/superagent/pkg/errx"
)

var ErrRegistry = errx.NewRegistry("FSX")

var (
	ErrNotFound    = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, http.StatusNotFound, "File not found")
	ErrInvalidPath = ErrRegistry.Register("INVALID_PATH", errx.TypeValidation, http.StatusBadRequest, "Invalid file path")
	ErrIO          = ErrRegistry.Register("IO", errx.TypeExternal, http.StatusInternalServerError, "File storage operation failed")
)

type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
	Exists(ctx context.Context, path string) (bool, error)
}

type FileWriter interface {
	WriteFile(ctx context.Context, path string, data []byte) error
	WriteFileStream(ctx context.Context, path string, r io.Reader) error
}

type FileDeleter interface {
	DeleteFile(ctx context.Context, path string) error
}

type FileSystem interface {
	FileReader
	FileWriter
	FileDeleter
}

// Clean normalizes p into a relative key and rejects paths that escape
// the root.
func Clean(p string) (string, error) {
	c := path.Clean("/" + strings.ReplaceAll(p, "\\", "/"))
	c = strings.TrimPrefix(c, "/")
	if c == "" || c == "." || strings.Contains(p, "..") {
		return "", ErrRegistry.New(ErrInvalidPath).WithDetail("path", p)
	}
	return c, nil
}

// Key builds an upload key from its parts.
func Key(parts ...string) string {
	return path.Join(parts...)
}

// ContentType guesses a MIME type from the file extension.
func ContentType(p string) string {
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return "application/pdf"
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".json":
		return "application/json"
	case ".html", ".htm":
		return "text/html"
	default:
		return "application/octet-stream"
	}
}
