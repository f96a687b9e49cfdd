package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"zenpayroll/internal/app/workspace"
	"zenpayroll/internal/domain/audit"
	"zenpayroll/internal/domain/auth"
	"zenpayroll/internal/domain/company"
	"zenpayroll/internal/domain/core"
	"zenpayroll/internal/domain/leave"
	"zenpayroll/internal/domain/payroll"
	"zenpayroll/internal/domain/reports"
	"zenpayroll/internal/platform/advisory"
	"zenpayroll/internal/platform/config"
	"zenpayroll/internal/platform/jobs"
	"zenpayroll/internal/platform/kv"
	"zenpayroll/internal/platform/metrics"
	"zenpayroll/internal/platform/seed"
)

type App struct {
	Config    config.Config
	Store     kv.Store
	Metrics   *metrics.Collector
	Authz     *auth.Authorizer
	Audit     *audit.Service
	Accounts  *auth.Accounts
	Sessions  *auth.Sessions
	Companies *company.Service
	Core      *core.Service
	Payroll   *payroll.Service
	Leave     *leave.Service
	Reports   *reports.Service
	Advisor   advisory.Advisor
	Jobs      *jobs.Service
	Seed      seed.Data
	Router    http.Handler
}

// New wires storage, services and the HTTP router from cfg.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	deletePolicy, err := company.ParseDeletePolicy(cfg.CompanyDeletePolicy)
	if err != nil {
		return nil, err
	}
	amendPolicy, err := leave.ParseAmendPolicy(cfg.LeaveAmendPolicy)
	if err != nil {
		return nil, err
	}
	mode, err := auth.ParseMode(cfg.AuthzMode, cfg.AuthzUnsafeDisabled)
	if err != nil {
		return nil, err
	}

	collector := metrics.New()
	store, err := kv.Open(ctx, cfg, collector)
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Store: store, Metrics: collector}
	if err := app.build(ctx, mode, deletePolicy, amendPolicy); err != nil {
		store.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) build(ctx context.Context, mode auth.Mode, deletePolicy company.DeletePolicy, amendPolicy leave.AmendPolicy) error {
	cfg := a.Config
	data, err := seed.Load(cfg.SeedFile)
	if err != nil {
		return err
	}
	a.Seed = data

	if cfg.AuthzModelPath != "" {
		a.Authz, err = auth.NewAuthorizerFromFiles(cfg.AuthzModelPath, cfg.AuthzPolicyPath, mode)
	} else {
		a.Authz, err = auth.NewAuthorizer(mode)
	}
	if err != nil {
		return fmt.Errorf("authorizer: %w", err)
	}

	a.Audit = audit.New(a.Store)
	a.Accounts = auth.NewAccounts(a.Store, cfg.AllowSelfSignup)
	if cfg.SeedDemoAccounts {
		created, err := a.Accounts.SeedDemo(ctx)
		if err != nil {
			return fmt.Errorf("seed demo accounts: %w", err)
		}
		if created > 0 {
			slog.Info("demo accounts created", "count", created)
		}
	}

	a.Companies = company.NewService(a.Store, a.Authz, a.Audit, deletePolicy, data.CompaniesFunc())
	a.Core = core.NewService(a.Store, a.Authz, a.Audit, a.Companies, a.Accounts, data.EmployeesFunc(), data.DepartmentsFunc())

	a.Advisor, err = advisory.New(ctx, cfg, a.Metrics)
	if err != nil {
		slog.Warn("payroll advisory disabled", "err", err)
		a.Advisor = advisory.Disabled{}
	}
	a.Payroll = payroll.NewService(a.Store, a.Authz, a.Audit, a.Core, a.Companies, a.Advisor)
	a.Companies.SetDependents(a.Core, a.Payroll)
	a.Leave = leave.NewService(a.Store, a.Authz, a.Audit, a.Core, amendPolicy)
	a.Reports = reports.NewService(a.Authz, a.Core, a.Payroll, a.Advisor)
	a.Sessions = auth.NewSessions(a.Store, a.Accounts, a.Core, cfg.JWTSecret, cfg.JWTTTL)
	a.Jobs = jobs.New(a.Store, a.Metrics)

	a.Router, err = a.router()
	return err
}

// Workspace returns a fresh operator view over the app's services.
func (a *App) Workspace() *workspace.Workspace {
	return workspace.New(workspace.Services{
		Sessions:  a.Sessions,
		Companies: a.Companies,
		Core:      a.Core,
		Payroll:   a.Payroll,
		Leave:     a.Leave,
	})
}

func (a *App) sweepSessions(ctx context.Context) (any, error) {
	purged, err := a.Sessions.PurgeExpired(ctx)
	if purged > 0 {
		slog.Info("expired sessions purged", "count", purged)
	}
	return map[string]int{"purged": purged}, err
}

func (a *App) Close() error {
	return a.Store.Close()
}

// NewLogger returns the JSON handler in production and text otherwise.
func NewLogger(cfg config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if strings.EqualFold(cfg.Environment, "production") {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

// Serve runs the HTTP server and background jobs until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	a.Jobs.Start(ctx)
	a.Jobs.Every(ctx, a.Config.SessionSweepInterval, jobs.JobSessionSweep, a.sweepSessions)

	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		slog.Info("zenpayroll listening", "addr", a.Config.Addr, "env", a.Config.Environment)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	slog.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
