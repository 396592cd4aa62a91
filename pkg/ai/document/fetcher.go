package document

import (
	"context"
	"strings"
	"time"

	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/gofiber/fiber/v2"
)

// Fetcher retrieves raw source bytes.
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
	PostJSON(ctx context.Context, url string, headers map[string]string, body any) ([]byte, error)
}

// HTTPFetcher fetches over HTTP with the fiber client. Sources that are
// not http(s) URLs are read from Files when it is set.
type HTTPFetcher struct {
	Timeout time.Duration
	Files   fsx.FileReader
}

func NewHTTPFetcher(timeout time.Duration, files fsx.FileReader) *HTTPFetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{Timeout: timeout, Files: files}
}

func isRemote(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

func (f *HTTPFetcher) Get(ctx context.Context, url string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !isRemote(url) {
		if f.Files == nil {
			return nil, ErrRegistry.New(ErrInvalidSource).WithDetail("url", url)
		}
		data, err := f.Files.ReadFile(ctx, url)
		if err != nil {
			return nil, ErrRegistry.NewWithCause(ErrFetchFailed, err).WithDetail("url", url)
		}
		return data, nil
	}

	a := fiber.Get(url).Timeout(f.deadline(ctx))
	return f.do(a, url)
}

func (f *HTTPFetcher) PostJSON(ctx context.Context, url string, headers map[string]string, body any) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a := fiber.Post(url).Timeout(f.deadline(ctx)).JSON(body)
	for k, v := range headers {
		a.Set(k, v)
	}
	return f.do(a, url)
}

func (f *HTTPFetcher) deadline(ctx context.Context) time.Duration {
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < f.Timeout {
			return max(left, time.Millisecond)
		}
	}
	return f.Timeout
}

func (f *HTTPFetcher) do(a *fiber.Agent, url string) ([]byte, error) {
	code, body, errs := a.Bytes()
	if len(errs) > 0 {
		return nil, ErrRegistry.NewWithCause(ErrFetchFailed, errs[0]).WithDetail("url", url)
	}
	if code < 200 || code >= 300 {
		return nil, ErrRegistry.New(ErrFetchFailed).
			WithDetail("url", url).
			WithDetail("status", code)
	}
	return body, nil
}
