package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"zenpayroll/internal/transport/http/api"
	audithandler "zenpayroll/internal/transport/http/handlers/audit"
	authhandler "zenpayroll/internal/transport/http/handlers/auth"
	corehandler "zenpayroll/internal/transport/http/handlers/core"
	leavehandler "zenpayroll/internal/transport/http/handlers/leave"
	payrollhandler "zenpayroll/internal/transport/http/handlers/payroll"
	reportshandler "zenpayroll/internal/transport/http/handlers/reports"
	"zenpayroll/internal/transport/http/middleware"
)

func (a *App) router() (http.Handler, error) {
	rate, err := middleware.ParseRate(a.Config.RateLimit)
	if err != nil {
		return nil, err
	}
	collector := a.Metrics
	if !a.Config.MetricsEnabled {
		collector = nil
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(a.Config.Environment == "production"))
	router.Use(middleware.Auth(a.Sessions))
	router.Use(middleware.Logger(slog.Default(), collector))
	router.Use(chimw.Recoverer)
	router.Use(middleware.BodyLimit(a.Config.MaxBodyBytes))
	router.Use(middleware.RateLimit(rate))
	router.Use(middleware.SensitiveRateLimit(rate))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := a.Store.Ping(ctx); err != nil {
			http.Error(w, "storage not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	if collector != nil {
		router.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), middleware.GetRequestID(r.Context()))
		})
	}

	router.Route("/api/v1", func(r chi.Router) {
		authhandler.NewHandler(a.Sessions, a.Accounts).RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			corehandler.NewHandler(a.Companies, a.Core).RegisterRoutes(r)
			payrollhandler.NewHandler(a.Payroll, a.Core, a.Leave).RegisterRoutes(r)
			leavehandler.NewHandler(a.Leave).RegisterRoutes(r)
			reportshandler.NewHandler(a.Reports).RegisterRoutes(r)
			audithandler.NewHandler(a.Audit, a.Jobs, a.Authz).RegisterRoutes(r)
		})
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		api.Fail(w, http.StatusNotFound, "not_found", "route not found", middleware.GetRequestID(r.Context()))
	})
	return router, nil
}
