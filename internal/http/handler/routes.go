package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docbin/internal/database"
	"docbin/internal/service"
)

// Deps are the collaborators the routes need.
type Deps struct {
	DB         *sql.DB
	Service    service.LifecycleService
	Sweeper    Sweeper
	Authorizer Authorizer
	// Gatherer backs /metrics; nil skips the endpoint.
	Gatherer prometheus.Gatherer
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, d Deps) {
	app.Get("/health", HealthCheck(d.DB))
	app.Get("/healthz", LivenessProbe())
	if d.Gatherer != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	folders := app.Group("/folders")
	folders.Get("/:id", GetFolder(d.Service))
	folders.Post("/:id/bin", BinFolder(d.Service, d.Authorizer))
	folders.Post("/:id/restore", RestoreFolder(d.Service, d.Authorizer))
	folders.Delete("/:id", PurgeFolder(d.Service, d.Authorizer))

	files := app.Group("/files")
	files.Get("/:id", GetFile(d.Service))
	files.Post("/:id/bin", BinFile(d.Service, d.Authorizer))
	files.Post("/:id/restore", RestoreFile(d.Service, d.Authorizer))
	files.Delete("/:id", PurgeFile(d.Service, d.Authorizer))

	app.Get("/bin", ListBinned(d.Service, d.Authorizer))
	app.Post("/bin/sweep", RunSweep(d.Sweeper, d.Authorizer))
}

// HealthCheck checks DB connectivity only.
func HealthCheck(db *sql.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if db == nil || database.Ping(c.UserContext(), db) != nil {
			return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "healthy"})
	}
}

// LivenessProbe answers 200 while the process is up.
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
