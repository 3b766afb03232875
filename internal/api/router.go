package api

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/api/handler"
	"github.com/saturnino-fabrica-de-software/presenca/internal/api/middleware"
	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
)

// Dependencies are the collaborators the HTTP layer fronts. The engine
// is consumed through the handler.Verifier interface so the router
// never touches verification internals.
type Dependencies struct {
	Verifier      handler.Verifier
	Recorder      audit.Recorder
	Store         store.ReferenceStore
	UploadDir     string
	VerifyTimeout time.Duration
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presenca API",
		BodyLimit:    64 * 1024 * 1024, // short clips, not movies
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))

	// Health check endpoints
	healthHandler := handler.NewHealthHandler(r.deps.Store)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// Attendance routes
	attendanceHandler := handler.NewAttendanceHandler(
		r.deps.Verifier,
		r.deps.Recorder,
		r.deps.UploadDir,
		r.deps.VerifyTimeout,
		r.logger,
	)

	api := r.app.Group("/api")
	api.Post("/attendance", attendanceHandler.Mark)
	api.Get("/attendance", attendanceHandler.List)
	api.Post("/attendance/clear", attendanceHandler.Clear)
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	return r.app.Shutdown()
}

func (r *Router) ShutdownWithTimeout(timeout time.Duration) error {
	return r.app.ShutdownWithTimeout(timeout)
}
