// Package httptransport assembles the HTTP surface: shared middleware, the
// service level endpoints and the registration routes.
package httptransport

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v2"
	"github.com/klauspost/compress/gzhttp"

	"udyam/internal/platform/config"
	"udyam/internal/platform/metrics"
	"udyam/internal/platform/middleware"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/platform/middleware/metadata"
	"udyam/pkg/platform/middleware/requesttime"
)

const (
	msgRoot    = "Udyam Registration Backend API"
	msgHealthy = "Server is healthy"

	requestTimeout     = 30 * time.Second
	healthCheckTimeout = 2 * time.Second
)

// RouteRegistrar mounts a group of routes.
type RouteRegistrar interface {
	Register(r chi.Router)
}

// HealthCheck reports whether an optional backing service is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the router needs from main.
type Deps struct {
	Config       config.Server
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	Registration RouteRegistrar
	// AccessLog receives HTTP access logs; nil means stdout.
	AccessLog io.Writer
	StartedAt time.Time
	// HealthChecks are reported on /api/health. A failing check never turns
	// the response unhealthy since every dependency has a local fallback.
	HealthChecks map[string]HealthCheck
}

type rootResponse struct {
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}

type healthResponse struct {
	Uptime    float64           `json:"uptime"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Services  map[string]string `json:"services,omitempty"`
}

// NewRouter wires all public endpoints.
func NewRouter(d Deps) http.Handler {
	if d.StartedAt.IsZero() {
		d.StartedAt = time.Now()
	}

	r := chi.NewRouter()
	r.Use(httplog.RequestLogger(newAccessLogger(d.Config, d.AccessLog)))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(metadata.ClientMetadata(d.Config.TrustedProxies...))
	r.Use(requesttime.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.Config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(middleware.SecurityHeaders)
	r.Use(compress)
	r.Use(chimiddleware.Timeout(requestTimeout))
	if d.Metrics != nil {
		r.Use(middleware.Latency(d.Metrics))
	}

	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteSuccess(w, http.StatusOK, msgRoot, rootResponse{
			Version: d.Config.Version,
			Endpoints: map[string]string{
				"submit":                "POST /api/submit",
				"submissions":           "GET /api/submissions",
				"submission":            "GET /api/submissions/{id}",
				"submissionByRegNumber": "GET /api/submissions/registration/{registrationNumber}",
				"stats":                 "GET /api/stats",
				"health":                "GET /api/health",
				"metrics":               "GET /metrics",
			},
		})
	})
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		now := time.Now()
		httputil.WriteSuccess(w, http.StatusOK, msgHealthy, healthResponse{
			Uptime:    now.Sub(d.StartedAt).Seconds(),
			Timestamp: now.UTC(),
			Version:   d.Config.Version,
			Services:  checkServices(r.Context(), d.Logger, d.HealthChecks),
		})
	})
	if d.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}

	if d.Registration != nil {
		d.Registration.Register(r)
	}

	return r
}

func checkServices(ctx context.Context, logger *slog.Logger, checks map[string]HealthCheck) map[string]string {
	if len(checks) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	out := make(map[string]string, len(checks))
	for name, check := range checks {
		if err := check(ctx); err != nil {
			logger.WarnContext(ctx, "health check failed", "service", name, "error", err)
			out[name] = "degraded"
			continue
		}
		out[name] = "up"
	}
	return out
}

func compress(next http.Handler) http.Handler {
	return gzhttp.GzipHandler(next)
}

// notFound also answers wrong-method requests so the API surface stays opaque.
func notFound(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteFailure(w, http.StatusNotFound, httputil.MessageNotFound)
}

func newAccessLogger(cfg config.Server, out io.Writer) *httplog.Logger {
	opts := httplog.Options{
		JSON:             cfg.IsProduction(),
		Concise:          !cfg.IsProduction(),
		LogLevel:         slog.LevelInfo,
		MessageFieldName: "message",
		QuietDownRoutes:  []string{"/api/health", "/metrics"},
		QuietDownPeriod:  time.Minute,
		Tags: map[string]string{
			"version": cfg.Version,
			"env":     cfg.Env,
		},
	}
	if out != nil {
		opts.Writer = out
	}
	return httplog.NewLogger("udyam-backend", opts)
}
