package agentcontainer

import (
	"context"

	"github.com/Abraxas-365/superagent/pkg/agent/agentapi"
	"github.com/Abraxas-365/superagent/pkg/agent/agentinfra"
	"github.com/Abraxas-365/superagent/pkg/agent/agentsrv"
	"github.com/Abraxas-365/superagent/pkg/agent/invocation"
	"github.com/Abraxas-365/superagent/pkg/agent/runtime"
	"github.com/Abraxas-365/superagent/pkg/ai/document"
	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// Deps are the external dependencies of the agent module.
type Deps struct {
	DB        *sqlx.DB
	Cfg       *config.Config
	LLMs      runtime.ChatFactory
	Documents *document.Store
	// Ownership checks for attachments; nil skips them.
	DocumentChecker agentsrv.DocumentChecker
}

type Container struct {
	AgentService *agentsrv.AgentService
	Controller   *invocation.Controller
	Handlers     *agentapi.Handlers

	submitter *invocation.AsyncSubmitter
}

func New(deps Deps) *Container {
	logx.Info("🔧 Initializing agent container...")

	agents := agentinfra.NewPostgresAgentRepository(deps.DB)
	prompts := agentinfra.NewPostgresPromptRepository(deps.DB)
	memory := agentinfra.NewPostgresMemoryStore(deps.DB)
	traces := agentinfra.NewPostgresTraceRepository(deps.DB)
	attachments := agentinfra.NewPostgresAgentDocumentRepository(deps.DB)

	c := &Container{
		AgentService: agentsrv.NewAgentService(agents, prompts, attachments, deps.DocumentChecker),
		submitter:    invocation.NewAsyncSubmitter(deps.Cfg.Jobx.JobTimeout),
	}
	c.Controller = invocation.NewController(invocation.Config{
		Agents:    agents,
		Documents: attachments,
		Memory:    memory,
		Traces:    traces,
		Runtime: runtime.Deps{
			LLMs:      deps.LLMs,
			Memory:    memory,
			Documents: deps.Documents,
		},
		Submitter: c.submitter,
		Tracing:   deps.Cfg.Tracing,
	})
	c.Handlers = agentapi.NewHandlers(c.AgentService, c.Controller)

	logx.WithField("tracing", deps.Cfg.Tracing).Info("✅ Agent container initialized")
	return c
}

func (c *Container) RegisterRoutes(app fiber.Router, protected, apiKey fiber.Handler) {
	c.Handlers.RegisterRoutes(app, protected, apiKey)
}

// Drain waits for pending memory and trace writes.
func (c *Container) Drain(ctx context.Context) error {
	return c.submitter.Wait(ctx)
}
