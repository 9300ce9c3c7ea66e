// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, authentication, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - Deterministic, minimal router setup; all dependencies injected
//   - Responses carry patient data, so they are never cached
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"path"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-scheduler-backend/docs"
	"github.com/tbourn/go-scheduler-backend/internal/auth"
	"github.com/tbourn/go-scheduler-backend/internal/authz"
	"github.com/tbourn/go-scheduler-backend/internal/config"
	"github.com/tbourn/go-scheduler-backend/internal/http/handlers"
	"github.com/tbourn/go-scheduler-backend/internal/http/middleware"
	"github.com/tbourn/go-scheduler-backend/internal/repo"
	"github.com/tbourn/go-scheduler-backend/internal/services"
)

// idemStore adapts the idempotency repository functions to
// handlers.IdempotencyStore and to the middleware lookup.
type idemStore struct {
	db  *gorm.DB
	ttl time.Duration
}

// exists is the middleware.IdempotencyLookup.
func (s idemStore) exists(ctx context.Context, userID uint, scope, key string, now time.Time) (bool, error) {
	_, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// Lookup proxies repo.GetIdempotency.
func (s idemStore) Lookup(ctx context.Context, userID uint, scope, key string) (uint, bool) {
	rec, err := repo.GetIdempotency(ctx, s.db, userID, scope, key, time.Now().UTC())
	if err != nil {
		return 0, false
	}
	return rec.ResourceID, true
}

// Remember proxies repo.CreateIdempotency. A concurrent duplicate already
// recorded the same outcome.
func (s idemStore) Remember(ctx context.Context, userID uint, scope, key string, resourceID uint, status int) {
	_, err := repo.CreateIdempotency(ctx, s.db, userID, scope, key, resourceID, status, s.ttl)
	if err != nil && !errors.Is(err, repo.ErrDuplicate) {
		log.Warn().Err(err).Str("scope", scope).Msg("idempotency record not stored")
	}
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the API under cfg.APIBasePath. rdb may be nil, in which
// case rate limiting is per process.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. RedactingLogger: structured logs with PII scrubbing
//  4. Recovery: capture panics after logger
//  5. Body size limiter
//  6. Metrics
//  7. gzip, CORS and security headers
//
// API group only:
//  8. Bearer authentication (login is mounted outside)
//  9. Idempotency validator (before rate limiter to allow bypass on replay)
//  10. Rate limiter (per principal/IP, bypass on replay)
func RegisterRoutes(r *gin.Engine, db *gorm.DB, rdb redis.Cmdable, cfg config.Config) {
	r.HandleMethodNotAllowed = true

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured logging, redacted unless disabled for local debugging
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders:     []string{"X-API-Key"},
			MaskQueryParams: []string{"email"},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Global body size limit (1 MiB)
	r.Use(limitBody(1 << 20))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Compression, CORS, security headers
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))
	useCORS(r, cfg.CORS)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		NoStore:      cfg.Security.NoStore,
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

	if cfg.SwaggerEnabled {
		docs.SwaggerInfo.BasePath = cfg.APIBasePath
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Dependency injection: services ← repo/db/policy
	pol := authz.MustNewPolicy()
	tokens := auth.NewIssuer(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.JWTTTL)
	idem := idemStore{db: db, ttl: cfg.IdempotencyTTL}
	h := handlers.New(
		services.NewAppointmentService(db, pol),
		services.NewReportService(db, pol),
		services.NewUserService(db, pol, tokens),
		idem,
	)

	base := groupWithPrefix(r, cfg.APIBasePath)
	base.POST("/auth/login", h.Login)

	api := base.Group("")
	api.Use(middleware.Authenticate(tokens))
	api.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{
		MaxLen: 200,
		Scopes: map[string]string{
			http.MethodPost + " " + path.Join(base.BasePath(), "/appointments"):    handlers.ScopeAppointmentCreate,
			http.MethodPost + " " + path.Join(base.BasePath(), "/reports/patient"): handlers.ScopeReportCreate,
		},
	}, idem.exists))
	api.Use(rateLimiter(rdb, cfg))
	{
		// Directory
		api.GET("/users/doctors", h.ListDoctors)
		api.GET("/users/patients", h.ListPatients)

		// Appointments
		api.GET("/appointments", h.ListAppointments)
		api.GET("/appointments/:id", h.GetAppointment)
		api.POST("/appointments", h.CreateAppointment)
		api.PUT("/appointments/:id", h.UpdateAppointment)
		api.DELETE("/appointments/:id", h.DeleteAppointment)

		// Reports
		api.POST("/reports/patient", h.CreatePatientReport)
		api.GET("/reports/patient/:id", h.GetPatientReport)
		api.GET("/reports/appointments", h.GetAppointmentReport)
	}
}

// rateLimiter picks the shared Redis window when a client is configured and
// the in-process token bucket otherwise.
func rateLimiter(rdb redis.Cmdable, cfg config.Config) gin.HandlerFunc {
	if rdb != nil {
		return middleware.RateLimit(
			middleware.NewRedisRateLimiter(rdb, cfg.RateBurst, cfg.RateWindow),
			middleware.KeyByPrincipalOrIP(),
		)
	}
	return middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByPrincipalOrIP()).Handler()
}

func useCORS(r *gin.Engine, cc config.CORSConfig) {
	conf := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "If-None-Match", middleware.HeaderIdempotencyKey},
		ExposeHeaders:    []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", handlers.HeaderIdempotencyReplayed},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}
	if len(cc.AllowedOrigins) == 0 {
		// Force ACAO: * even for requests without an Origin header.
		r.Use(func(c *gin.Context) {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
			c.Next()
		})
		conf.AllowAllOrigins = true
	} else {
		conf.AllowOrigins = cc.AllowedOrigins
	}
	r.Use(cors.New(conf))
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
