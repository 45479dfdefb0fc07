// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/pet-calendar-backend/internal/config"
	"github.com/tbourn/pet-calendar-backend/internal/http/handlers"
	"github.com/tbourn/pet-calendar-backend/internal/http/middleware"
	"github.com/tbourn/pet-calendar-backend/internal/notify"
	"github.com/tbourn/pet-calendar-backend/internal/payments"
	"github.com/tbourn/pet-calendar-backend/internal/repo"
	"github.com/tbourn/pet-calendar-backend/internal/services"

	_ "github.com/tbourn/pet-calendar-backend/docs"
)

const (
	defaultBodyLimit = 1 << 20
	// multipart framing and form fields on top of the photo itself
	uploadOverhead = 1 << 20

	// per-client budget for calendar creation
	createPerMinute = 6
	createBurst     = 3
)

// Deps are the collaborators the routes need besides the database.
type Deps struct {
	// Queue receives generation jobs for new calendars.
	Queue services.Enqueuer
	// Payments is nil when checkout is disabled.
	Payments payments.Gateway
	// Notifier is nil when receipts are disabled.
	Notifier notify.Notifier
	Log      zerolog.Logger
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, static
// artifacts, and then mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter (per route)
//  6. Gzip + Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, deps Deps, cfg config.Config) {
	r.HandleMethodNotAllowed = true
	apiBase := cfg.APIBasePath // e.g. "/api"
	createPath := joinPath(apiBase, "/calendars")

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limits; uploads get the photo limit plus form overhead
	uploadLimit := cfg.MaxUploadBytes + uploadOverhead
	if cfg.MaxUploadBytes <= 0 {
		uploadLimit = 10<<20 + uploadOverhead
	}
	r.Use(limitBody(defaultBodyLimit, map[string]int64{createPath: uploadLimit}))

	// 6) Compression and Prometheus metrics
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics", "/generated"})))
	r.Use(middleware.Metrics("/metrics"))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			Scope:  services.IdempotencyScopeCreate,
			MaxLen: 200,
		},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, scope, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	allowHeaders := []string{"Origin", "Content-Type", "Accept", middleware.HeaderIdempotencyKey, "If-None-Match", "Stripe-Signature"}
	exposeHeaders := []string{"X-Request-ID", "Content-Length", "ETag", middleware.HeaderIdempotencyReplayed, "Retry-After"}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false, // must remain false with AllowAllOrigins
			MaxAge:           12 * time.Hour,
		}))
	} else {
		// Echo ACAO with the request Origin when it is in the allowlist (in addition to gin-contrib/cors).
		allowed := make(map[string]struct{}, len(cfg.CORS.AllowedOrigins))
		for _, o := range cfg.CORS.AllowedOrigins {
			allowed[o] = struct{}{}
		}
		r.Use(func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORS.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     allowHeaders,
			ExposeHeaders:    exposeHeaders,
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Security headers (HSTS only when enabled and request is HTTPS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      false,
		EnablePolicy: true,
	}))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	// API docs
	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Locally stored month images
	if (cfg.Artifacts.Backend == config.ArtifactLocal || cfg.Artifacts.Backend == "") && cfg.Artifacts.Dir != "" {
		r.Static("/generated", cfg.Artifacts.Dir)
	}

	// Dependency injection: services ← repo/db/collaborators
	calSvc := services.NewCalendarService(db, deps.Queue)
	if cfg.MaxUploadBytes > 0 {
		calSvc.MaxPhotoBytes = cfg.MaxUploadBytes
	}
	if cfg.IdempotencyTTL > 0 {
		calSvc.IdempotencyTTL = cfg.IdempotencyTTL
	}
	purchaseSvc := &services.PurchaseService{
		DB:            db,
		Gateway:       deps.Payments,
		Notifier:      deps.Notifier,
		PublicBaseURL: cfg.PublicBaseURL,
		Log:           deps.Log.With().Str("component", "purchase").Logger(),
	}
	h := handlers.New(calSvc, purchaseSvc)

	createLimiter := middleware.NewRateLimiter(middleware.PerMinute(createPerMinute), createBurst, middleware.KeyByRouteAndIP())

	// Public API
	api := groupWithPrefix(r, apiBase)
	{
		// Calendars
		api.POST("/calendars", createLimiter.Handler(), h.CreateCalendar)
		api.GET("/calendars/:id", h.GetCalendar)
		api.GET("/calendars/:id/months", h.GetCalendarMonths)

		// Checkout
		api.POST("/checkout", h.CreateCheckout)
		api.GET("/checkout/verify", middleware.NoStore(), h.VerifyCheckout)

		// Stripe
		api.POST("/stripe/webhook", h.StripeWebhook)
		api.GET("/stripe/status", h.StripeStatus)
		api.GET("/stripe/publishable-key", h.StripePublishableKey)
	}
}

// limitBody returns a Gin middleware that caps the request body size using
// http.MaxBytesReader. The cap is def unless the matched route has an entry
// in perRoute. Requests exceeding the cap cause downstream body reads to
// error.
func limitBody(def int64, perRoute map[string]int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := def
		if n, ok := perRoute[c.FullPath()]; ok {
			limit = n
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}

// joinPath joins the API base and a route the way gin does for groups.
func joinPath(base, route string) string {
	if base == "" || base == "/" {
		return route
	}
	return base + route
}
