package apikeyapi

import (
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey/apikeysrv"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *apikeysrv.APIKeyService
	header  string
}

func NewHandlers(service *apikeysrv.APIKeyService, header string) *Handlers {
	return &Handlers{service: service, header: header}
}

func (h *Handlers) RegisterRoutes(app fiber.Router, protected fiber.Handler) {
	g := app.Group("/api-tokens", protected)
	g.Post("/", h.Create)
	g.Get("/", h.List)
	g.Delete("/:id", h.Delete)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req apikey.CreateRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithCause(err)
	}
	resp, err := h.service.CreateAPIKey(c.UserContext(), ac.UserID, req)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": resp})
}

func (h *Handlers) List(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	keys, err := h.service.ListAPIKeys(c.UserContext(), ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": keys})
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAPIKey(c.UserContext(), ac.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": nil})
}

// Middleware authenticates with the API token header and stores the
// token's owner as the caller.
func (h *Handlers) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := c.Get(h.header)
		if token == "" {
			return apikey.ErrMissing().WithDetail("header", h.header)
		}
		key, err := h.service.ValidateAPIKey(c.UserContext(), token)
		if err != nil {
			return err
		}
		c.Locals(kernel.LocalsAuthKey, &kernel.AuthContext{
			UserID:   key.UserID,
			IsAPIKey: true,
			APIKeyID: key.ID,
		})
		return c.Next()
	}
}
