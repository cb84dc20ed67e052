// ABOUTME: Serve command that runs the HTTP server
// ABOUTME: Wires config, session store, upstream client, OAuth, metrics and rate limits into the router

package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/oganilir/drive-bff/config"
	"github.com/oganilir/drive-bff/handlers"
	"github.com/oganilir/drive-bff/logger"
	"github.com/oganilir/drive-bff/metrics"
	"github.com/oganilir/drive-bff/middleware"
	"github.com/oganilir/drive-bff/services"
)

const shutdownTimeout = 15 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// LOG_* may come from .env; Load reports a malformed file once logging is up.
	_ = config.LoadDotEnv()
	logger.Init()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	srv, cleanup, err := newServer(cfg, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer cleanup()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Server listening", "addr", srv.Addr, "version", Version)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

// newServer assembles the HTTP server from cfg. Metrics are registered on reg.
// The returned cleanup releases background resources.
func newServer(cfg *config.Config, reg *prometheus.Registry) (*http.Server, func(), error) {
	slog.Info("Starting drive BFF", "environment", cfg.Environment, "upstream", cfg.APIBaseURL)

	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	upstream := services.NewUpstreamClient(cfg.APIBaseURL, cfg.UpstreamTimeout)
	upstream.SetMetrics(m)
	if cfg.UpstreamProxy != "" {
		if err := upstream.UseProxy(cfg.UpstreamProxy); err != nil {
			return nil, nil, fmt.Errorf("configuring upstream proxy: %w", err)
		}
		slog.Info("Upstream calls tunnel through SSH proxy")
	}

	sessions := services.NewSessionStore(cfg.SessionSecret, cfg.CookieSecure)
	h := handlers.NewHandler(cfg, sessions, upstream)
	h.SetMetrics(m)

	cleanup := func() {}
	if cfg.GoogleConfigured() {
		oauth := services.NewGoogleOAuth(cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.AppURL+"/auth/google/callback")
		h.SetOAuth(oauth)
		cleanup = oauth.Close
		slog.Info("Google OAuth configured")
	} else {
		slog.Info("Google OAuth not configured, password login only")
	}

	opts := handlers.RouterOptions{
		CORSOrigins: cfg.CORSAllowedOrigins,
		CSRFEnabled: cfg.CSRFEnabled,
		Metrics:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	}
	if cfg.RateLimitEnabled {
		opts.AuthLimiter = middleware.NewRateLimiter(cfg.RateLimitAuth, time.Minute)
		opts.DefaultLimiter = middleware.NewRateLimiter(cfg.RateLimitDefault, time.Minute)
		slog.Info("Rate limiting enabled", "auth_per_min", cfg.RateLimitAuth, "default_per_min", cfg.RateLimitDefault)
	} else {
		slog.Warn("Rate limiting disabled")
	}
	if !cfg.CSRFEnabled {
		slog.Warn("CSRF protection disabled")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handlers.NewRouter(h, opts),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return srv, cleanup, nil
}
