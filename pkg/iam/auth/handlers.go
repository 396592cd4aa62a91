package auth

import (
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam"
	"github.com/Abraxas-365/superagent/pkg/iam/user"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *Service
	users   user.Repository
}

func NewHandlers(service *Service, users user.Repository) *Handlers {
	return &Handlers{service: service, users: users}
}

// RegisterRoutes mounts /auth. protected guards /auth/me.
func (h *Handlers) RegisterRoutes(app fiber.Router, protected fiber.Handler) {
	g := app.Group("/auth")
	g.Post("/sign-up", h.SignUp)
	g.Post("/sign-in", h.SignIn)
	g.Get("/me", protected, h.Me)
}

func (h *Handlers) SignUp(c *fiber.Ctx) error {
	var req SignUpRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithCause(err)
	}
	u, err := h.service.SignUp(c.UserContext(), req, c.IP())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "data": u})
}

func (h *Handlers) SignIn(c *fiber.Ctx) error {
	var req SignInRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithCause(err)
	}
	tok, err := h.service.SignIn(c.UserContext(), req, c.IP())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": tok})
}

func (h *Handlers) Me(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	u, err := h.users.FindByID(c.UserContext(), ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": u})
}
