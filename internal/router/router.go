package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/scriptdesk-api/internal/config"
	"github.com/noah-isme/scriptdesk-api/internal/handler"
	"github.com/noah-isme/scriptdesk-api/internal/middleware"
	"github.com/noah-isme/scriptdesk-api/internal/observability"
	"github.com/noah-isme/scriptdesk-api/internal/workflow"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ScriptHandler    *handler.ScriptHandler
	ProjectHandler   *handler.ProjectHandler
	TopicHandler     *handler.TopicHandler
	DashboardHandler *handler.DashboardHandler
	ActivityHandler  *handler.ActivityHandler
	UserHandler      *handler.UserHandler
	SeedHandler      *handler.SeedHandler
	Database         handler.Pinger
	// Auth runs in order before every protected route, typically
	// JWTProtected, SyncIdentity and RateLimit.
	Auth []fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg, deps.Database))

	protect := deps.Auth
	if len(protect) == 0 {
		protect = []fiber.Handler{func(c *fiber.Ctx) error { return c.Next() }}
	}

	if deps.UserHandler != nil {
		deps.UserHandler.Register(api.Group("/auth", protect...))
	}

	if deps.DashboardHandler != nil {
		deps.DashboardHandler.Register(api.Group("/dashboard", protect...))
	}

	if deps.ScriptHandler != nil {
		deps.ScriptHandler.Register(api.Group("/scripts", protect...))
	}

	if deps.ProjectHandler != nil {
		deps.ProjectHandler.Register(api.Group("/projects", protect...))
	}

	if deps.TopicHandler != nil {
		deps.TopicHandler.Register(api.Group("/topics", protect...))
	}

	// Activity history is reviewer material.
	if deps.ActivityHandler != nil {
		group := api.Group("/activity", chain(protect, middleware.RequireCapability(workflow.CapReview))...)
		deps.ActivityHandler.Register(group)
	}

	if deps.SeedHandler != nil {
		admin := chain(protect, middleware.RequireCapability(workflow.CapManageProjects|workflow.CapManageTopics))
		deps.SeedHandler.Register(api.Group("/admin/seed", admin...))
	}
}

func chain(base []fiber.Handler, extra ...fiber.Handler) []fiber.Handler {
	handlers := make([]fiber.Handler, 0, len(base)+len(extra))
	handlers = append(handlers, base...)
	return append(handlers, extra...)
}
