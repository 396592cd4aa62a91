package apikeyapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey/apikeysrv"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memKeys struct {
	mu   sync.Mutex
	keys map[string]apikey.APIKey
}

func (m *memKeys) Create(_ context.Context, k apikey.APIKey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[k.ID] = k
	return nil
}

func (m *memKeys) FindByHash(_ context.Context, hash string) (*apikey.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range m.keys {
		if k.KeyHash == hash {
			return &k, nil
		}
	}
	return nil, apikey.ErrNotFound()
}

func (m *memKeys) ListByUser(_ context.Context, userID kernel.UserID) ([]*apikey.APIKey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*apikey.APIKey
	for _, k := range m.keys {
		if k.UserID == userID {
			out = append(out, &k)
		}
	}
	return out, nil
}

func (m *memKeys) Delete(_ context.Context, id string, userID kernel.UserID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k, ok := m.keys[id]
	if !ok || k.UserID != userID {
		return apikey.ErrNotFound()
	}
	delete(m.keys, id)
	return nil
}

func (m *memKeys) TouchLastUsed(context.Context, string) error { return nil }

const header = "X_SUPERAGENT_API_KEY"

func newApp(repo *memKeys) *fiber.App {
	h := NewHandlers(apikeysrv.NewAPIKeyService(repo, ""), header)
	app := fiber.New(fiber.Config{ErrorHandler: func(c *fiber.Ctx, err error) error {
		status, body := errx.ToHTTPResponse(err, "")
		return c.Status(status).JSON(body)
	}})

	asUser := func(c *fiber.Ctx) error {
		c.Locals(kernel.LocalsAuthKey, &kernel.AuthContext{UserID: kernel.UserID(c.Get("X-Test-User"))})
		return c.Next()
	}
	h.RegisterRoutes(app, asUser)
	app.Get("/whoami", h.Middleware(), func(c *fiber.Ctx) error {
		ac, err := iam.AuthFrom(c)
		if err != nil {
			return err
		}
		return c.SendString(ac.UserID.String())
	})
	return app
}

func TestCreateThenAuthenticate(t *testing.T) {
	repo := &memKeys{keys: map[string]apikey.APIKey{}}
	app := newApp(repo)

	req := httptest.NewRequest("POST", "/api-tokens", strings.NewReader(`{"description":"ci"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Test-User", "u1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, 201, resp.StatusCode)

	var body struct {
		Success bool                  `json:"success"`
		Data    apikey.CreateResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.True(t, strings.HasPrefix(body.Data.Token, apikey.DefaultPrefix))

	for _, k := range repo.keys {
		assert.Equal(t, apikey.Hash(body.Data.Token), k.KeyHash)
		assert.NotContains(t, k.KeyHash, body.Data.Token)
	}

	req = httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(header, body.Data.Token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	who, _ := io.ReadAll(resp.Body)
	assert.Equal(t, "u1", string(who))
}

func TestMiddlewareRejects(t *testing.T) {
	app := newApp(&memKeys{keys: map[string]apikey.APIKey{}})

	resp, err := app.Test(httptest.NewRequest("GET", "/whoami", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	req := httptest.NewRequest("GET", "/whoami", nil)
	req.Header.Set(header, "sa_unknownunknownunknown")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestDeleteOtherUsersToken(t *testing.T) {
	repo := &memKeys{keys: map[string]apikey.APIKey{"k1": {ID: "k1", UserID: "u1"}}}
	app := newApp(repo)

	req := httptest.NewRequest("DELETE", "/api-tokens/k1", nil)
	req.Header.Set("X-Test-User", "u2")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.Contains(t, repo.keys, "k1")
}
