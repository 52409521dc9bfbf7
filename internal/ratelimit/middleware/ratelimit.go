// Package middleware enforces per-client admission limits in front of handlers.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"net/netip"
	"strconv"
	"time"

	"udyam/internal/ratelimit/models"
	"udyam/pkg/platform/circuit"
	"udyam/pkg/platform/httputil"
	"udyam/pkg/requestcontext"
)

const (
	// MessageTooManyRequests is the fixed body of every 429 response.
	MessageTooManyRequests = "Too many requests. Please try again later."

	headerStatus   = "X-RateLimit-Status"
	statusDegraded = "degraded"
)

// BucketStore counts requests per key.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// MetricsRecorder receives one call per refused request.
type MetricsRecorder interface {
	IncrementRateLimited(route string)
}

type Middleware struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	logger   *slog.Logger
	metrics  MetricsRecorder
	disabled bool
}

type Option func(*Middleware)

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

// WithFallback answers from store once breaker opens on primary failures.
func WithFallback(store BucketStore, breaker *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.fallback = store
		m.breaker = breaker
	}
}

func WithMetrics(metrics MetricsRecorder) Option {
	return func(m *Middleware) {
		m.metrics = metrics
	}
}

func New(primary BucketStore, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit admits at most rule.Requests per client IP within rule.Window on
// the wrapped route. A store failure lets the request through.
func (m *Middleware) RateLimit(route string, rule models.Rule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			ip := requestcontext.ClientIP(ctx)
			key := models.ClientKey(route, ip)

			result, degraded, err := m.check(ctx, key, rule)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"route", route,
					"ip_prefix", anonymizeIP(ip),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set(headerStatus, statusDegraded)
			}

			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.IncrementRateLimited(route)
				}
				m.logger.WarnContext(ctx, "rate limit exceeded",
					"route", route,
					"ip_prefix", anonymizeIP(ip),
					"retry_after", result.RetryAfter,
				)
				writeRateLimitExceeded(w, result)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// check consults the primary store, switching to the fallback while the
// breaker is open. degraded reports that the fallback answered.
func (m *Middleware) check(ctx context.Context, key string, rule models.Rule) (*models.RateLimitResult, bool, error) {
	result, err := m.primary.Allow(ctx, key, rule.Requests, rule.Window)
	if m.breaker == nil || m.fallback == nil {
		return result, false, err
	}

	if err == nil {
		_, change := m.breaker.RecordSuccess()
		if change.Closed {
			m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
		}
		return result, false, nil
	}

	useFallback, change := m.breaker.RecordFailure()
	if change.Opened {
		m.logger.WarnContext(ctx, "rate limit store circuit opened, using in-memory fallback",
			"breaker", m.breaker.Name(),
			"error", err,
		)
	}
	if !useFallback {
		return nil, false, err
	}
	result, err = m.fallback.Allow(ctx, key, rule.Requests, rule.Window)
	return result, err == nil, err
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteFailure(w, http.StatusTooManyRequests, MessageTooManyRequests)
}

// anonymizeIP keeps the /24 (IPv4) or /48 (IPv6) network so logs never hold a full address.
func anonymizeIP(raw string) string {
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return ""
	}
	bits := 24
	if addr.Is6() && !addr.Is4In6() {
		bits = 48
	}
	prefix, err := addr.Unmap().Prefix(bits)
	if err != nil {
		return ""
	}
	return prefix.String()
}
