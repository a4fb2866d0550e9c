package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"

	"github.com/samirrijal/gateflow/internal/pkg/metrics"
)

const (
	requestTimeout = 15 * time.Second
	// Analyses of large batches read and scan every stored row.
	analysisTimeout = 60 * time.Second
)

// SetupRoutes registers all REST and GraphQL routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	if deps.Validate == nil {
		deps.Validate = newValidator()
	}

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))

	// Request ID, then request-scoped logger and trace span
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(TracingMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, 429, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	// Health & readiness, no timeout
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	v1 := app.Group("/v1")
	v1.Post("/flow", timeout.NewWithContext(AnalyzeFlowHandler(deps), analysisTimeout))
	v1.Post("/gates/square", timeout.NewWithContext(GateSquareHandler(deps), requestTimeout))
	v1.Get("/batches", timeout.NewWithContext(ListBatchesHandler(deps), requestTimeout))
	v1.Get("/batches/:batch", timeout.NewWithContext(GetBatchHandler(deps), requestTimeout))
	v1.Get("/batches/:batch/flow", timeout.NewWithContext(BatchFlowHandler(deps), analysisTimeout))

	// GraphQL
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), analysisTimeout))

	// API documentation (Swagger UI)
	SetupDocs(app)
}
