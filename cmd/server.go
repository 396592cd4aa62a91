package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Abraxas-365/superagent/pkg/config"
	"github.com/Abraxas-365/superagent/pkg/errx"
	"github.com/Abraxas-365/superagent/pkg/logx"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
)

const requestIDHeader = "X-Request-ID"

func main() {
	// 1. Logger
	logx.SetLevel(logx.ParseLevel(os.Getenv("LOG_LEVEL")))

	cfg := config.Load()
	logx.Infof("🚀 Starting %s...", cfg.Server.AppName)

	// 2. Dependency container
	container := NewContainer(cfg)
	defer container.Cleanup()

	// 3. Fiber app
	app := newApp(cfg, container)

	// 4. Background workers
	ctx, stop := context.WithCancel(context.Background())
	workersDone := container.StartBackgroundServices(ctx)

	// 5. Serve until a signal arrives
	startServer(app, cfg.Server.Port)
	gracefulShutdown(app, stop, workersDone)
}

func newApp(cfg *config.Config, container *Container) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               cfg.Server.AppName,
		DisableStartupMessage: true,
		ErrorHandler:          globalErrorHandler,
		BodyLimit:             cfg.Server.BodyLimit,
		IdleTimeout:           120 * time.Second,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))

	app.Use(requestid.New(requestid.Config{
		Header:    requestIDHeader,
		Generator: uuid.NewString,
	}))
	app.Use(func(c *fiber.Ctx) error {
		if id, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(logx.ContextWithRequestID(c.UserContext(), id))
		}
		return c.Next()
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.Server.CORSOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + cfg.Auth.APIKeyHeader + ", " + requestIDHeader,
		AllowMethods:  "GET, POST, DELETE, PATCH, OPTIONS",
		ExposeHeaders: requestIDHeader,
	}))

	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path} | ${ip} | ${locals:requestid}\n",
		TimeFormat: "2006-01-02 15:04:05",
		TimeZone:   "Local",
	}))

	app.Get("/health", healthCheckHandler(container))

	container.IAM.RegisterRoutes(app)
	logx.Info("✓ Auth and API token routes registered")

	container.Agents.RegisterRoutes(app, container.IAM.Protected(), container.IAM.APIKey())
	logx.Info("✓ Agent, prompt and predict routes registered")

	container.Ingest.RegisterRoutes(app, container.IAM.Protected())
	logx.Info("✓ Document routes registered")

	app.Use(notFoundHandler)
	return app
}

// healthCheckHandler pings Postgres and Redis.
func healthCheckHandler(container *Container) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		health := fiber.Map{"status": "healthy"}

		if err := container.DB.PingContext(ctx); err != nil {
			health["db"] = "unhealthy"
			health["db_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["db"] = "healthy"
		}

		if err := container.Redis.Ping(ctx).Err(); err != nil {
			health["redis"] = "unhealthy"
			health["redis_error"] = err.Error()
			health["status"] = "degraded"
		} else {
			health["redis"] = "healthy"
		}

		status := fiber.StatusOK
		if health["status"] == "degraded" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(health)
	}
}

func notFoundHandler(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
		"error":      "Route not found",
		"code":       "NOT_FOUND",
		"path":       c.Path(),
		"method":     c.Method(),
		"request_id": requestID(c),
	})
}

// globalErrorHandler renders every error returned by a handler.
func globalErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		e := errx.New(fe.Message, httpType(fe.Code))
		e.HTTPStatus = fe.Code
		err = e
	}

	status, body := errx.ToHTTPResponse(err, requestID(c))

	entry := logx.WithFields(logx.Fields{
		"path":       c.Path(),
		"method":     c.Method(),
		"status":     status,
		"code":       body.Code,
		"request_id": body.RequestID,
	}).WithError(err)
	if status >= fiber.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Debug("Request rejected")
	}

	return c.Status(status).JSON(body)
}

func httpType(status int) errx.Type {
	switch {
	case status == fiber.StatusNotFound:
		return errx.TypeNotFound
	case status == fiber.StatusUnauthorized || status == fiber.StatusForbidden:
		return errx.TypeAuthorization
	case status >= 400 && status < 500:
		return errx.TypeValidation
	default:
		return errx.TypeInternal
	}
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.Get(requestIDHeader)
}

func startServer(app *fiber.App, port string) {
	go func() {
		logx.Infof("🚀 Server listening on port %s", port)
		logx.Infof("💚 Health Check: http://localhost:%s/health", port)
		if err := app.Listen(":" + port); err != nil {
			logx.Fatalf("Server error: %v", err)
		}
	}()
}

// gracefulShutdown waits for SIGINT/SIGTERM, stops the HTTP server, then
// the workers.
func gracefulShutdown(app *fiber.App, stopWorkers context.CancelFunc, workersDone <-chan struct{}) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	sig := <-sigChan
	logx.Infof("🛑 Received signal: %v", sig)
	logx.Info("Shutting down gracefully...")

	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		logx.Errorf("Server forced to shutdown: %v", err)
	}

	stopWorkers()
	<-workersDone

	logx.Info("✅ Server exited successfully")
}
