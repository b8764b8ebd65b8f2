package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-recovery-api/internal/application/recovery"
	"github.com/go-recovery-api/internal/config"
	"github.com/go-recovery-api/internal/transport/http/handler"
	appmiddleware "github.com/go-recovery-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds the application router. The returned close func stops background
// workers owned by the router.
func NewRouter(cfg *config.Config, deps *Deps) (http.Handler, func()) {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(cfg.RateLimit.RPS), cfg.RateLimit.Burst)

	recoverySvc := recovery.NewService(recovery.ServiceDeps{
		Store:       deps.RecoveryStore,
		Codec:       deps.Codec,
		Now:         deps.Now,
		ResetWindow: cfg.Recovery.ResetWindow,
		ConsumeCode: cfg.Recovery.ConsumeCode,
	})

	healthH := handler.NewHealthHandler(deps.Ready)
	pwH := handler.NewPasswordRecoveryHandler(recoverySvc)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.With(sensitiveRL.Limit).Post("/password-recovery/{action}", pwH.Action)
	})

	return r, sensitiveRL.Close
}
