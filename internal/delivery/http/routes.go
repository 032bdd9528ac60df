package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/piyushdan-dataslush/bms-analytics/config"
	"github.com/piyushdan-dataslush/bms-analytics/pkg/logger"
)

// NewRouter mounts the control surface. Everything but /health sits behind
// bearer auth when jwtCfg is enabled.
func NewRouter(h *HTTPHandler, jwtCfg config.JWTConfig, l logger.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(l))
	r.Use(middleware.Recoverer)

	r.Get("/health", h.HealthCheck)

	r.Group(func(r chi.Router) {
		if jwtCfg.Enabled {
			r.Use(BearerAuth(jwtCfg.Secret, jwtCfg.Issuer))
		}

		r.With(middleware.Timeout(30*time.Second)).Post("/campaigns", h.BootstrapCampaign)
		r.Post("/process", h.ProcessCity)
		r.Post("/trigger-on-demand", h.TriggerOnDemand)
		r.Get("/shows/{eventId}/{sessionId}/{date}", h.GetShow)
		r.Get("/jobs", h.ListJobs)
	})

	return r
}
