package api

import (
	"bufio"
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"streameconomy/domain"
	"streameconomy/domain/entities"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Identity headers set by the gateway after authentication
const (
	HeaderUserID   = "X-User-ID"
	HeaderUserRole = "X-User-Role"
)

var (
	httpLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "streameconomy",
			Name:      "http_request_duration_seconds",
			Help:      "Latency of HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)

	metricsOnce sync.Once
)

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack lets the websocket upgrade take over the connection
func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hijacker.Hijack()
}

// HTTPMetrics observes request latency per route pattern
func HTTPMetrics(next http.Handler) http.Handler {
	metricsOnce.Do(func() {
		prometheus.MustRegister(httpLatency)
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		httpLatency.WithLabelValues(r.Method, routePattern(r), strconv.Itoa(rec.status)).
			Observe(time.Since(start).Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unmatched"
}

// Identity is the caller as asserted by the gateway
type Identity struct {
	UserID int64
	Role   entities.UserRole
}

type identityKey struct{}

// IdentityFromHeaders stores the gateway identity in the request context.
// Requests without a valid X-User-ID pass through anonymously.
func IdentityFromHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderUserID))
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		userID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || userID <= 0 {
			writeError(w, r, domain.NewUnauthorizedError("invalid %s header", HeaderUserID))
			return
		}

		identity := Identity{
			UserID: userID,
			Role:   entities.UserRole(strings.ToUpper(strings.TrimSpace(r.Header.Get(HeaderUserRole)))),
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, identity)))
	})
}

// identityFrom returns the caller or an Unauthorized error
func identityFrom(r *http.Request) (Identity, error) {
	identity, ok := r.Context().Value(identityKey{}).(Identity)
	if !ok {
		return Identity{}, domain.NewUnauthorizedError("sign in to continue")
	}
	return identity, nil
}

// RequireStreamerRole rejects callers whose asserted role is not STREAMER.
// Services re-check the stored role.
func RequireStreamerRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFrom(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if identity.Role != "" && identity.Role != entities.UserRoleStreamer {
			writeError(w, r, domain.NewForbiddenError("only streamers can do that"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireIdentity rejects anonymous callers
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := identityFrom(r); err != nil {
			writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// caller returns the identity stored by IdentityFromHeaders. Routes using it
// sit behind RequireIdentity.
func caller(r *http.Request) Identity {
	identity, _ := r.Context().Value(identityKey{}).(Identity)
	return identity
}
