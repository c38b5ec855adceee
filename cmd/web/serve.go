// cmd/web/serve.go
//
// `web serve` wires the process-wide services and runs the HTTP server.
//
// Workflow
// --------
//
//  1. boot (config + file logger).
//
//  2. CSRF key, session store, provider client, and profile store.  The SQL
//     backend opens the pool and, when database.migrate is set, applies
//     migrations before the first request.
//
//  3. Gate, view engine, request-info enricher, and the per-IP limiter.
//
//  4. Global middleware chain:
//     RequestID → requestinfo → AccessLog → ForceHTTPS → Security.
//
//  5. /metrics, then every registered component.
//
//  6. Serve until SIGINT or SIGTERM, then drain within server.ShutdownGrace.
//
//------------------------------------------------------------------------------

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yanizio/adept-auth/internal/auth"
	"github.com/yanizio/adept-auth/internal/component"
	"github.com/yanizio/adept-auth/internal/config"
	"github.com/yanizio/adept-auth/internal/database"
	"github.com/yanizio/adept-auth/internal/form"
	"github.com/yanizio/adept-auth/internal/middleware"
	"github.com/yanizio/adept-auth/internal/profile"
	"github.com/yanizio/adept-auth/internal/provider"
	"github.com/yanizio/adept-auth/internal/requestinfo"
	"github.com/yanizio/adept-auth/internal/routing"
	"github.com/yanizio/adept-auth/internal/server"
	"github.com/yanizio/adept-auth/internal/session"
	"github.com/yanizio/adept-auth/internal/token"
	"github.com/yanizio/adept-auth/internal/view"

	// Components self-register in init().
	_ "github.com/yanizio/adept-auth/components/auth"
	_ "github.com/yanizio/adept-auth/components/pages"
)

const siteName = "Adept"

func serveCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), *cfgPath)
		},
	}
}

func runServe(parent context.Context, cfgPath string) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, log, err := boot(ctx, cfgPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	handler, cleanup, err := buildHandler(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(cfg.HTTP.ListenAddr, handler, server.Timeouts{
		Read:  cfg.HTTP.ReadTimeout,
		Write: cfg.HTTP.WriteTimeout,
		Idle:  cfg.HTTP.IdleTimeout,
	})
	log.Infow("listening", "addr", cfg.HTTP.ListenAddr, "public_url", cfg.HTTP.PublicURL)
	if err := server.Run(ctx, srv); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	log.Info("server stopped")
	return nil
}

// buildHandler assembles services and the router.  cleanup releases the DB
// pool and GeoIP reader.
func buildHandler(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (http.Handler, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warnw("cleanup", "err", err)
			}
		}
	}
	fail := func(err error) (http.Handler, func(), error) {
		cleanup()
		return nil, func() {}, err
	}

	if cfg.Security.CSRFKey != "" {
		if err := form.SetSecret([]byte(cfg.Security.CSRFKey)); err != nil {
			return fail(fmt.Errorf("csrf key: %w", err))
		}
	}

	sessions, err := session.New(session.Options{
		CookieName:      cfg.Session.CookieName,
		Secret:          cfg.Session.Secret,
		PreviousSecrets: cfg.Session.PreviousSecrets,
		MaxAge:          cfg.Session.MaxAge,
		Secure:          cfg.Session.Secure,
		SameSite:        cfg.Session.SameSiteMode(),
	})
	if err != nil {
		return fail(err)
	}

	pc, err := provider.New(provider.Options{
		URL:     cfg.Provider.URL,
		AnonKey: cfg.Provider.AnonKey,
		Timeout: cfg.Provider.Timeout,
	})
	if err != nil {
		return fail(err)
	}

	var profiles profile.Store
	switch cfg.Profiles.Backend {
	case "rest":
		profiles = profile.NewRESTStore(pc, cfg.Profiles.Table)
	default:
		dsn := cfg.Database.ResolvedDSN()
		if cfg.Database.Migrate {
			if err := database.Migrate(cfg.Database.Driver, dsn); err != nil {
				return fail(err)
			}
			log.Infow("migrations applied", "driver", cfg.Database.Driver)
		}
		db, err := database.OpenWithOptions(ctx, cfg.Database.Driver, dsn, cfg.Database.MaxOpen, cfg.Database.MaxIdle)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, db.Close)
		profiles = profile.NewSQLStore(db, cfg.Profiles.Table)
	}

	views, err := view.New(siteName)
	if err != nil {
		return fail(err)
	}

	gate, err := auth.NewGate(auth.Deps{
		Sessions: sessions,
		Tokens:   token.NewValidator(pc, nil),
		Profiles: profiles,
		Users:    pc,
		Timeout:  cfg.Gate.Timeout,
		Log:      log,
		OnError: func(w http.ResponseWriter, r *http.Request, err error) {
			views.Error(w, r, http.StatusInternalServerError, "Something went wrong.  Please try again.")
		},
	})
	if err != nil {
		return fail(err)
	}

	enricher, err := requestinfo.New(requestinfo.Options{
		GeoDBPath:  cfg.Geo.DBPath,
		TrustProxy: cfg.HTTP.TrustProxy,
	})
	if err != nil {
		return fail(err)
	}
	closers = append(closers, enricher.Close)

	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		enricher.Middleware,
		middleware.AccessLog,
		middleware.ForceHTTPS(cfg.HTTP.ForceHTTPS),
		middleware.Security(cfg.HTTP.ForceHTTPS),
	)
	r.Handle(routing.Metrics, promhttp.Handler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		views.Error(w, r, http.StatusNotFound, "Page not found.")
	})

	svc := component.Services{
		Config:   cfg,
		Gate:     gate,
		Sessions: sessions,
		Sync:     auth.NewSynchronizer(profiles),
		Provider: pc,
		Profiles: profiles,
		Views:    views,
		Limiter:  middleware.NewRateLimiter(cfg.Security.AuthRate, cfg.Security.AuthBurst, 0),
		Log:      log,
	}
	if err := component.Mount(r, svc); err != nil {
		return fail(err)
	}
	return r, cleanup, nil
}
