package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/jackc/pgx/v5/pgxpool"

	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/civicworks/presence/internal/api/docs"
	"github.com/civicworks/presence/internal/api/handler"
	"github.com/civicworks/presence/internal/api/middleware"
	"github.com/civicworks/presence/internal/checkin"
	"github.com/civicworks/presence/internal/enrollment"
	"github.com/civicworks/presence/internal/ws"
)

type Dependencies struct {
	Orchestrator    *checkin.Orchestrator
	EnrollmentStore enrollment.Store
	Attendance      handler.AttendanceReader
	Grievances      handler.GrievanceAnalyzer
	// Purger is set when the matcher backend keeps face data in a
	// remote index that must be wiped on enrollment reset.
	Purger handler.IdentityPurger
	DB     *pgxpool.Pool
}

type Router struct {
	app         *fiber.App
	logger      *slog.Logger
	deps        *Dependencies
	rateLimiter *middleware.RateLimiter
	wsHub       *ws.Hub
	cancelHub   context.CancelFunc
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Presence API",
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
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	var pinger handler.Pinger
	if r.deps != nil && r.deps.DB != nil {
		pinger = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(pinger)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	// API v1 group
	v1 := r.app.Group("/v1")

	// Only configure domain routes if dependencies were provided
	if r.deps != nil {
		// Live progress hub, fed by the orchestrator's event stream
		r.wsHub = ws.NewHub()
		hubCtx, hubCancel := context.WithCancel(context.Background())
		r.cancelHub = hubCancel
		go r.wsHub.Run(hubCtx)
		go ws.Forward(hubCtx, r.wsHub, r.deps.Orchestrator.Events())

		// Kiosk-device rate limiting
		r.rateLimiter = middleware.NewRateLimiter(middleware.DefaultRateLimiterConfig())
		v1.Use(r.rateLimiter.Handler())

		notifier := ws.NewNotifier(r.wsHub)

		// Enrollment routes
		enrollmentHandler := handler.NewEnrollmentHandler(r.deps.Orchestrator, r.deps.EnrollmentStore, r.logger).
			WithNotifier(notifier)
		if r.deps.Purger != nil {
			enrollmentHandler.WithPurger(r.deps.Purger)
		}
		v1.Post("/enrollments", enrollmentHandler.Enroll)
		v1.Get("/enrollments", enrollmentHandler.List)
		v1.Get("/enrollments/:employee_id", enrollmentHandler.Status)
		v1.Delete("/enrollments/:employee_id", enrollmentHandler.Reset)

		// Attendance routes
		attendanceHandler := handler.NewAttendanceHandler(r.deps.Orchestrator, r.deps.Attendance, r.logger).
			WithNotifier(notifier)
		v1.Post("/attendance/check-in", attendanceHandler.CheckIn)
		v1.Get("/attendance/flagged", attendanceHandler.Flagged)
		v1.Get("/attendance/:employee_id/history", attendanceHandler.History)
		v1.Get("/attendance/:employee_id/last", attendanceHandler.Last)

		// Grievance routes
		grievanceHandler := handler.NewGrievanceHandler(r.deps.Grievances, r.logger)
		v1.Post("/grievances/analyze", grievanceHandler.Analyze)

		// WebSocket endpoint
		v1.Get("/ws", ws.UpgradeMiddleware(), ws.Handler(r.wsHub))
	}
}

func (r *Router) App() *fiber.App {
	return r.app
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

func (r *Router) Shutdown() error {
	// Stop WebSocket hub and event forwarder
	if r.cancelHub != nil {
		r.cancelHub()
	}

	// Stop rate limiter cleanup goroutine
	if r.rateLimiter != nil {
		r.rateLimiter.Stop()
	}

	return r.app.Shutdown()
}
