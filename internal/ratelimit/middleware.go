package ratelimit

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	apperrors "github.com/brickstemple/storefront/pkg/errors"
	"github.com/brickstemple/storefront/pkg/httputil"
)

// Metrics exposes limiter decisions and the number of tracked keys.
type Metrics struct {
	decisions *prometheus.CounterVec
}

// NewMetrics registers the limiter collectors with reg.
func NewMetrics(reg prometheus.Registerer, l *Limiter) (*Metrics, error) {
	m := &Metrics{
		decisions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratelimit_decisions_total",
				Help: "Admission decisions taken by the rate limiter",
			},
			[]string{"decision"},
		),
	}
	trackedKeys := prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "ratelimit_tracked_keys",
			Help: "Number of client keys currently held by the rate limiter",
		},
		func() float64 { return float64(l.Len()) },
	)

	for _, c := range []prometheus.Collector{m.decisions, trackedKeys} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register rate limit metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(allowed bool) {
	if m == nil {
		return
	}
	m.decisions.WithLabelValues(decision(allowed)).Inc()
}

func decision(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "rejected"
}

// Options configures Middleware. Every field is optional.
type Options struct {
	// TrustProxyHeaders keys clients by X-Forwarded-For / X-Real-IP. Enable
	// it only behind a proxy that overwrites those headers.
	TrustProxyHeaders bool
	Logger            *slog.Logger
	Metrics           *Metrics
	Stats             *RedisStats
	Now               func() time.Time
}

// Middleware admits or rejects every request before it reaches the router.
// Rejected requests get a 429 naming the limit and window and never reach
// next.
func Middleware(l *Limiter, opts Options) func(http.Handler) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	message := fmt.Sprintf("too many requests: limit is %d per %s", l.Limit(), l.Window())
	retryAfter := strconv.Itoa(int(l.Window().Round(time.Second).Seconds()))
	// A flood of rejections from one client must not flood the log too.
	rejectLog := &rate.Sometimes{First: 1, Interval: 10 * time.Second}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := clientIP(r, opts.TrustProxyHeaders)
			allowed := l.Admit(key, now().UnixMilli())

			opts.Metrics.observe(allowed)
			opts.Stats.Observe(allowed)

			if !allowed {
				rejectLog.Do(func() {
					logger.WarnContext(r.Context(), "rate limit exceeded",
						slog.String("client", key),
						slog.String("path", r.URL.Path),
					)
				})
				w.Header().Set("Retry-After", retryAfter)
				httputil.WriteError(w, r, apperrors.TooManyRequests(message), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP returns the key identifying the caller: the remote address
// without port, or the first valid forwarded address when proxy headers
// are trusted.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			first, _, _ := strings.Cut(xff, ",")
			if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
				return ip.String()
			}
		}
		if xri := r.Header.Get("X-Real-IP"); xri != "" {
			if ip := net.ParseIP(strings.TrimSpace(xri)); ip != nil {
				return ip.String()
			}
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
