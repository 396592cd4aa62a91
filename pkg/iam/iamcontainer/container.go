package iamcontainer

import (
	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey/apikeyapi"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey/apikeyinfra"
	"github.com/Abraxas-365/superagent/pkg/iam/apikey/apikeysrv"
	"github.com/Abraxas-365/superagent/pkg/iam/auth"
	"github.com/Abraxas-365/superagent/pkg/iam/auth/authinfra"
	"github.com/Abraxas-365/superagent/pkg/iam/user/userinfra"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
)

// Deps are the external dependencies of the IAM module.
type Deps struct {
	DB  *sqlx.DB
	Cfg *config.Config
}

// Container is the public surface of the IAM module.
type Container struct {
	APIKeyService *apikeysrv.APIKeyService
	TokenService  auth.TokenService

	AuthHandlers   *auth.Handlers
	APIKeyHandlers *apikeyapi.Handlers

	AuthMiddleware *auth.TokenMiddleware
}

// New wires repos, then services, then handlers and middleware.
func New(deps Deps) *Container {
	logx.Info("🔧 Initializing IAM container...")

	c := &Container{}

	userRepo := userinfra.NewPostgresUserRepository(deps.DB)
	apiKeyRepo := apikeyinfra.NewPostgresAPIKeyRepository(deps.DB)

	c.TokenService = auth.NewJWTService(deps.Cfg.Auth.JWTSecret, deps.Cfg.Auth.AccessTokenTTL, deps.Cfg.Auth.JWTIssuer)
	c.APIKeyService = apikeysrv.NewAPIKeyService(apiKeyRepo, deps.Cfg.Auth.APIKeyPrefix)

	authService := auth.NewService(userRepo, c.TokenService, authinfra.NewLogxAuditService())

	c.AuthHandlers = auth.NewHandlers(authService, userRepo)
	c.APIKeyHandlers = apikeyapi.NewHandlers(c.APIKeyService, deps.Cfg.Auth.APIKeyHeader)
	c.AuthMiddleware = auth.NewAuthMiddleware(c.TokenService)

	logx.Info("✅ IAM container initialized")
	return c
}

// Protected guards routes with a bearer JWT.
func (c *Container) Protected() fiber.Handler {
	return c.AuthMiddleware.Authenticate()
}

// APIKey guards routes with the API token header.
func (c *Container) APIKey() fiber.Handler {
	return c.APIKeyHandlers.Middleware()
}

// RegisterRoutes mounts /auth and /api-tokens.
func (c *Container) RegisterRoutes(app fiber.Router) {
	c.AuthHandlers.RegisterRoutes(app, c.Protected())
	c.APIKeyHandlers.RegisterRoutes(app, c.Protected())
}
