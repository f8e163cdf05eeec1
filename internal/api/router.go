package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"factorypulse-gateway/internal/auth"
)

// SetupAPIRouter serves the dashboard API and the live websocket feed.
func SetupAPIRouter(h *APIHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	r.Post("/login", h.HandleLogin)
	// read-only feed, browsers cannot attach an Authorization header here
	r.Get("/ws", h.HandleWebSocket)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.JWTMiddleware)

		r.Get("/alerts", h.HandleListAlerts)
		r.Delete("/alerts/{id}", h.HandleDismissAlert)
		r.Get("/readings", h.HandleReadings)

		// assistant and journal panels are admin only
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(auth.RoleAdmin))

			r.Get("/chat", h.HandleGreeting)
			r.Post("/chat", h.HandleChat)

			r.Get("/maintenance", h.HandleListMaintenance)
			r.Post("/maintenance", h.HandleCreateMaintenance)
			r.Get("/maintenance/{id}", h.HandleGetMaintenance)
			r.Put("/maintenance/{id}", h.HandleUpdateMaintenance)
			r.Delete("/maintenance/{id}", h.HandleDeleteMaintenance)
		})
	})

	return r
}

// SetupOpsRouter serves health and prometheus metrics.
func SetupOpsRouter(h *APIHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.HandleHealth)
	r.Handle("/metrics", promhttp.Handler())

	return r
}
