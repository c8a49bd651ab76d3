package api

import (
	"context"
	"net/http"
	"time"

	"streameconomy/domain/interfaces"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readinessTimeout = 2 * time.Second

// HealthCheck is one dependency probed by /ready
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// NewRouter wires the REST API, the websocket endpoint and operational routes
func NewRouter(economy Economy, fanout interfaces.Fanout, checks ...HealthCheck) http.Handler {
	h := NewHandler(economy)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(HTTPMetrics)
	r.Use(IdentityFromHeaders)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readiness(checks))
	r.Handle("/metrics", promhttp.Handler())
	r.Method(http.MethodGet, "/ws", NewRealtimeHandler(fanout))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", h.RegisterUser)
		r.Get("/streamer-tiers", h.StreamerTiers)

		r.Route("/streamers/{streamerID}", func(r chi.Router) {
			r.Get("/", h.StreamerProfile)
			r.Get("/tiers", h.StreamerViewerTiers)
			r.Get("/gifts", h.StreamerGifts)

			r.Group(func(r chi.Router) {
				r.Use(RequireIdentity)
				r.Get("/progress", h.Progress)
				r.Post("/gifts/send", h.SendGift)
				r.Post("/roulette", h.PlayRoulette)
				r.Post("/chat", h.ChatMessage)
			})
		})

		r.Group(func(r chi.Router) {
			r.Use(RequireIdentity)

			r.Route("/me", func(r chi.Router) {
				r.Get("/", h.Me)
				r.Post("/streamer", h.BecomeStreamer)
				r.Get("/balance", h.Balance)
				r.Get("/balance/history", h.BalanceHistory)
				r.Post("/recharges", h.Recharge)
				r.Get("/wagers", h.Wagers)
				r.Get("/notifications", h.Notifications)
				r.Get("/notifications/unread-count", h.UnreadCount)
				r.Post("/notifications/read-all", h.MarkAllNotificationsRead)
				r.Post("/notifications/{notificationID}/read", h.MarkNotificationRead)
				r.With(RequireStreamerRole).Post("/sessions", h.RecordSession)
			})

			r.Group(func(r chi.Router) {
				r.Use(RequireStreamerRole)
				r.Post("/tiers", h.CreateViewerTier)
				r.Patch("/tiers/{tierID}", h.UpdateViewerTier)
				r.Post("/gifts", h.CreateGift)
				r.Patch("/gifts/{giftID}", h.UpdateGift)
			})
		})
	})

	return r
}

// readiness reports 503 with the failing dependencies when any check fails
func readiness(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		failing := map[string]string{}
		for _, check := range checks {
			if err := check.Check(ctx); err != nil {
				failing[check.Name] = err.Error()
			}
		}

		if len(failing) > 0 {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failing": failing})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
