package ingestapi

import (
	"encoding/json"

	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/iam"
	"github.com/Abraxas-365/superagent/pkg/ingest"
	"github.com/Abraxas-365/superagent/pkg/ingest/ingestsrv"
	"github.com/gofiber/fiber/v2"
)

type Handlers struct {
	service *ingestsrv.DocumentService
}

func NewHandlers(service *ingestsrv.DocumentService) *Handlers {
	return &Handlers{service: service}
}

func (h *Handlers) RegisterRoutes(app fiber.Router, protected fiber.Handler) {
	g := app.Group("/documents", protected)
	g.Post("/", h.Create)
	g.Post("/upload", h.Upload)
	g.Get("/", h.List)
	g.Get("/:id", h.Get)
	g.Delete("/:id", h.Delete)
}

func (h *Handlers) Create(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req ingest.CreateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid request body").WithCause(err)
	}
	d, err := h.service.CreateDocument(c.UserContext(), ac.UserID, req)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": d})
}

// Upload takes a multipart form with the file under "file". The
// "splitter" and "metadata" fields carry JSON.
func (h *Handlers) Upload(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	var req ingest.CreateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return errx.Validation("invalid form").WithCause(err)
	}
	if raw := c.FormValue("splitter"); raw != "" {
		var s document.SplitterConfig
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return errx.Validation("invalid splitter").WithCause(err)
		}
		req.Splitter = &s
	}
	if raw := c.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &req.Metadata); err != nil {
			return errx.Validation("invalid metadata").WithCause(err)
		}
	}

	fh, err := c.FormFile("file")
	if err != nil {
		return errx.Validation("file is required").WithCause(err)
	}
	f, err := fh.Open()
	if err != nil {
		return errx.Validation("unreadable file").WithCause(err)
	}
	defer f.Close()

	d, err := h.service.UploadDocument(c.UserContext(), ac.UserID, req, fh.Filename, f)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": d})
}

func (h *Handlers) List(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	docs, err := h.service.ListDocuments(c.UserContext(), ac.UserID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": docs})
}

func (h *Handlers) Get(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	d, err := h.service.GetDocument(c.UserContext(), ac.UserID, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": d})
}

func (h *Handlers) Delete(c *fiber.Ctx) error {
	ac, err := iam.AuthFrom(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteDocument(c.UserContext(), ac.UserID, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": nil})
}
