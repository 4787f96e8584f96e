// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Production-ready CORS and security header posture
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tbourn/go-crm-backend/internal/config"
	"github.com/tbourn/go-crm-backend/internal/domain"
	"github.com/tbourn/go-crm-backend/internal/http/handlers"
	"github.com/tbourn/go-crm-backend/internal/http/middleware"
	"github.com/tbourn/go-crm-backend/internal/llm"
	"github.com/tbourn/go-crm-backend/internal/match"
	"github.com/tbourn/go-crm-backend/internal/repo"
	"github.com/tbourn/go-crm-backend/internal/services"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"
)

// clientRepoShim adapts the repository free functions to the services.ClientRepo
// interface expected by the ClientService. This keeps services decoupled from
// the concrete repo package while reusing existing functions.
type clientRepoShim struct{}

// CreateClient proxies repo.CreateClient.
func (clientRepoShim) CreateClient(ctx context.Context, db *gorm.DB, name, company, email string) (*domain.Client, error) {
	return repo.CreateClient(ctx, db, name, company, email)
}

// GetClient proxies repo.GetClient.
func (clientRepoShim) GetClient(ctx context.Context, db *gorm.DB, id string) (*domain.Client, error) {
	return repo.GetClient(ctx, db, id)
}

// ListClients proxies repo.ListClients.
func (clientRepoShim) ListClients(ctx context.Context, db *gorm.DB, includeInactive bool) ([]domain.Client, error) {
	return repo.ListClients(ctx, db, includeInactive)
}

// CountClients proxies repo.CountClients (pagination support).
func (clientRepoShim) CountClients(ctx context.Context, db *gorm.DB, includeInactive bool) (int64, error) {
	return repo.CountClients(ctx, db, includeInactive)
}

// ListClientsPage proxies repo.ListClientsPage (pagination support).
func (clientRepoShim) ListClientsPage(ctx context.Context, db *gorm.DB, includeInactive bool, offset, limit int) ([]domain.Client, error) {
	return repo.ListClientsPage(ctx, db, includeInactive, offset, limit)
}

// SearchClients proxies repo.SearchClients.
func (clientRepoShim) SearchClients(ctx context.Context, db *gorm.DB, query string, includeInactive bool) ([]domain.Client, error) {
	return repo.SearchClients(ctx, db, query, includeInactive)
}

// UpdateClient proxies repo.UpdateClient.
func (clientRepoShim) UpdateClient(ctx context.Context, db *gorm.DB, id string, updates map[string]any) (*domain.Client, error) {
	return repo.UpdateClient(ctx, db, id, updates)
}

// SetClientActive proxies repo.SetClientActive.
func (clientRepoShim) SetClientActive(ctx context.Context, db *gorm.DB, id string, active bool) error {
	return repo.SetClientActive(ctx, db, id, active)
}

// HardDeleteClient proxies repo.HardDeleteClient.
func (clientRepoShim) HardDeleteClient(ctx context.Context, db *gorm.DB, id string) error {
	return repo.HardDeleteClient(ctx, db, id)
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine. It configures observability (tracing, metrics), idempotency and rate
// limiting, CORS and security headers, health and metrics endpoints, and then
// mounts the versioned public API under /api/v*.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter, gzip
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Rate limiter (per user/IP, bypass on replay)
//  9. CORS and Security headers
func RegisterRoutes(r *gin.Engine, db *gorm.DB, provider llm.Provider, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging with redaction. Client contact details show up
	// in search queries, so scrubbing is not optional here.
	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
		MaskHeaders: []string{
			"X-API-Key",
		},
	}))

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB) and response compression
	r.Use(limitBody(1 << 20))
	r.Use(gzip.Gzip(gzip.DefaultCompression))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{
			MaxLen: 200,
		},
		func(ctx context.Context, userID, clientID, key string, now time.Time) (bool, error) {
			rec, err := repo.GetIdempotency(ctx, db, userID, clientID, key, now)
			if err != nil || rec == nil {
				return false, nil
			}
			return true, nil
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS posture (safe defaults: allow all if none configured)
	if len(cfg.CORS.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header (helps tests and simple health checks).
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		r.Use(cors.New(cors.Config{
			AllowAllOrigins:  true,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-User-ID", middleware.HeaderIdempotencyKey},
			ExposeHeaders:    []string{"X-Request-ID", "Content-Length"},
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
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "provider": provider.Name()})
	})

	// Dependency injection: services ← repo/db/provider
	clientSvc := services.NewClientService(db, clientRepoShim{})
	clientSvc.Detector = match.NewDetector(cfg.DuplicateThreshold)

	extractSvc := services.NewExtractionService(db, provider)
	extractSvc.Temperature = cfg.LLM.Temperature
	extractSvc.MaxTokens = cfg.LLM.MaxTokens
	extractSvc.CallTimeout = cfg.LLM.Timeout

	fuSvc := services.NewFollowUpService(db, provider)
	fuSvc.MaxTokens = cfg.LLM.MaxTokens
	fuSvc.CallTimeout = cfg.LLM.Timeout

	statsSvc := services.NewStatsService(db)

	h := handlers.New(clientSvc, extractSvc, fuSvc, statsSvc)

	// Public API
	apiBase := cfg.APIBasePath // e.g. "/api/v1"
	api := groupWithPrefix(r, apiBase)
	{
		// Clients
		api.POST("/clients", h.CreateClient)
		api.GET("/clients", h.ListClients)
		api.GET("/clients/search", h.SearchClients)
		api.GET("/clients/:id", h.GetClient)
		api.PATCH("/clients/:id", h.UpdateClient)
		api.DELETE("/clients/:id", h.DeleteClient)
		api.POST("/clients/:id/restore", h.RestoreClient)

		// Interactions
		api.POST("/clients/:id/interactions", h.PostInteraction)
		api.GET("/clients/:id/interactions", h.ListInteractions)
		api.GET("/interactions/recent", h.RecentInteractions)

		// Follow-ups
		api.POST("/interactions/:id/followup", h.GenerateFollowUp)
		api.GET("/interactions/:id/followup", h.GetFollowUp)
		api.GET("/followups/due", h.DueFollowUps)

		// Stats
		api.GET("/stats/pipeline", h.PipelineStats)
		api.GET("/clients/:id/stats", h.ClientStats)
	}
}

// limitBody returns a Gin middleware that caps the request body size for all
// endpoints to maxBytes using http.MaxBytesReader. Requests exceeding the cap
// will cause downstream body reads to error.
func limitBody(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
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
