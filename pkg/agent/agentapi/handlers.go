// Package agentapi exposes agents, prompts, document attachments and the
// predict endpoint over HTTP.
package agentapi

import (
	"bufio"
	"context"

	"github.com/Abraxas-365/superagent/pkg/agent"
	"github.com/Abraxas-365/superagent/pkg/agent/agentsrv"
	"github.com/Abraxas-365/superagent/pkg/agent/invocation"
	"github.com/Abraxas-365/superagent/pkg/iam"
	"github.com/Abraxas-365/superagent/pkg/kernel"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

// Predictor runs one predict request.
type Predictor interface {
	Predict(ctx context.Context, userID kernel.UserID, agentID string, req invocation.Request) (*invocation.Invocation, error)
}

type Handlers struct {
	service   *agentsrv.AgentService
	predictor Predictor
}

func NewHandlers(service *agentsrv.AgentService, predictor Predictor) *Handlers {
	return &Handlers{service: service, predictor: predictor}
}

// RegisterRoutes mounts /agents, /prompts and /agent-documents. Predict is
// guarded by apiKey, everything else by protected.
func (h *Handlers) RegisterRoutes(app fiber.Router, protected, apiKey fiber.Handler) {
	agents := app.Group("/agents")
	agents.Post("/", protected, h.CreateAgent)
	agents.Get("/", protected, h.ListAgents)
	agents.Get("/:id", protected, h.GetAgent)
	agents.Patch("/:id", protected, h.UpdateAgent)
	agents.Delete("/:id", protected, h.DeleteAgent)
	agents.Post("/:id/predict", apiKey, h.Predict)

	prompts := app.Group("/prompts", protected)
	prompts.Post("/", h.CreatePrompt)
	prompts.Get("/", h.ListPrompts)
	prompts.Get("/:id", h.GetPrompt)
	prompts.Patch("/:id", h.UpdatePrompt)
	prompts.Delete("/:id", h.DeletePrompt)

	docs := app.Group("/agent-documents", protected)
	docs.Post("/", h.AttachDocument)
	docs.Get("/", h.ListAttachments)
	docs.Delete("/:id", h.DetachDocument)
}

func ok(c *fiber.Ctx, data any) error {
	return c.JSON(fiber.Map{"success": true, "data": data})
}

func invalidBody(err error) error {
	return agent.ErrRegistry.NewWithCause(agent.ErrInvalidBody, err)
}

// ============================================================================
// Agents
// ============================================================================

func (h *Handlers) CreateAgent(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req agent.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	a, err := h.service.CreateAgent(c.UserContext(), ac.UserID, req)
	if err != nil {
		return err
	}
	return ok(c, a)
}

func (h *Handlers) ListAgents(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	agents, err := h.service.ListAgents(c.UserContext(), ac.UserID)
	if err != nil {
		return err
	}
	return ok(c, agents)
}

func (h *Handlers) GetAgent(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	a, err := h.service.GetAgent(c.UserContext(), ac.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, a)
}

func (h *Handlers) UpdateAgent(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(err)
	}
	a, err := h.service.UpdateAgent(c.UserContext(), ac.UserID, c.Params("id"), body)
	if err != nil {
		return err
	}
	return ok(c, a)
}

func (h *Handlers) DeleteAgent(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteAgent(c.UserContext(), ac.UserID, c.Params("id")); err != nil {
		return err
	}
	return ok(c, nil)
}

// Predict answers with the output, or with an event stream when the body
// asks for has_streaming.
func (h *Handlers) Predict(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req invocation.Request
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}

	agentID := c.Params("id")
	inv, err := h.predictor.Predict(c.UserContext(), ac.UserID, agentID, req)
	if err != nil {
		return err
	}

	if inv.Bridge == nil {
		resp := fiber.Map{"success": true, "data": inv.Output}
		if inv.Trace != nil {
			resp["trace"] = inv.Trace
		}
		return c.JSON(resp)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	bridge := inv.Bridge
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		for frame := range bridge.Consume(ctx) {
			if _, err := w.WriteString(frame); err != nil {
				return
			}
			if err := w.Flush(); err != nil {
				logx.WithFields(logx.Fields{"agent_id": agentID}).Debugf("stream client gone: %v", err)
				return
			}
		}
	}))
	return nil
}

// ============================================================================
// Prompts
// ============================================================================

func (h *Handlers) CreatePrompt(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req agent.CreatePromptRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	p, err := h.service.CreatePrompt(c.UserContext(), ac.UserID, req)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *Handlers) ListPrompts(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	prompts, err := h.service.ListPrompts(c.UserContext(), ac.UserID)
	if err != nil {
		return err
	}
	return ok(c, prompts)
}

func (h *Handlers) GetPrompt(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	p, err := h.service.GetPrompt(c.UserContext(), ac.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *Handlers) UpdatePrompt(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var body map[string]any
	if err := c.BodyParser(&body); err != nil {
		return invalidBody(err)
	}
	p, err := h.service.UpdatePrompt(c.UserContext(), ac.UserID, c.Params("id"), body)
	if err != nil {
		return err
	}
	return ok(c, p)
}

func (h *Handlers) DeletePrompt(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeletePrompt(c.UserContext(), ac.UserID, c.Params("id")); err != nil {
		return err
	}
	return ok(c, nil)
}

// ============================================================================
// Agent documents
// ============================================================================

func (h *Handlers) AttachDocument(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req agent.AttachDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody(err)
	}
	d, err := h.service.AttachDocument(c.UserContext(), ac.UserID, req)
	if err != nil {
		return err
	}
	return ok(c, d)
}

// ListAttachments lists the documents attached to ?agentId=.
func (h *Handlers) ListAttachments(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	agentID := c.Query("agentId")
	if agentID == "" {
		return agent.ErrRegistry.New(agent.ErrInvalidBody).WithDetail("query", "agentId")
	}
	docs, err := h.service.ListAttachments(c.UserContext(), ac.UserID, agentID)
	if err != nil {
		return err
	}
	return ok(c, docs)
}

func (h *Handlers) DetachDocument(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DetachDocument(c.UserContext(), ac.UserID, c.Params("id")); err != nil {
		return err
	}
	return ok(c, nil)
}
