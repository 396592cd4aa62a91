package ingestcontainer

import (
	"time"

	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/fsx"
	"github.com/Abraxas-365/superagent/pkg/ingest"
	"github.com/Abraxas-365/superagent/pkg/ingest/ingestapi"
	"github.com/Abraxas-365/superagent/pkg/ingest/ingestinfra"
	"github.com/Abraxas-365/superagent/pkg/ingest/ingestsrv"
	"github.com/Abraxas-365/superagent/pkg/jobx"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// Deps are the external dependencies of the ingestion module.
type Deps struct {
	DB    *sqlx.DB
	Cfg   *config.Config
	Jobs  *jobx.Client
	Store *document.Store
	Files fsx.FileSystem
}

type Container struct {
	DocumentService *ingestsrv.DocumentService
	Ingester        *ingestsrv.Ingester
	Handlers        *ingestapi.Handlers
}

// New wires the document service and registers the ingest job handler
// on deps.Jobs.
func New(deps Deps) *Container {
	logx.Info("🔧 Initializing ingestion container...")

	repo := ingestinfra.NewPostgresDocumentRepository(deps.DB)
	ing := deps.Cfg.Ingestion

	splitter := document.SplitterConfig{
		Type:         document.SplitterType(ing.SplitterType),
		ChunkSize:    ing.ChunkSize,
		ChunkOverlap: ing.ChunkOverlap,
	}
	sources := ingestsrv.Sources{
		Fetcher:          document.NewHTTPFetcher(time.Duration(ing.FetchTimeout)*time.Second, deps.Files),
		ConnectFirestore: document.ConnectFirestore,
		PsychicSecretKey: deps.Cfg.AI.PsychicSecretKey,
	}

	c := &Container{
		DocumentService: ingestsrv.NewDocumentService(repo, deps.Jobs, deps.Store, deps.Files, splitter),
		Ingester:        ingestsrv.NewIngester(repo, sources, deps.Store),
	}
	c.Handlers = ingestapi.NewHandlers(c.DocumentService)

	deps.Jobs.Register(ingest.JobIngest, c.Ingester.Handle)

	logx.Info("✅ Ingestion container initialized")
	return c
}

func (c *Container) RegisterRoutes(app fiber.Router, protected fiber.Handler) {
	c.Handlers.RegisterRoutes(app, protected)
}
