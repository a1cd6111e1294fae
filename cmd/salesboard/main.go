package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"salesboard/internal/cli"
	apphttp "salesboard/internal/http"
	applog "salesboard/internal/log"
	"salesboard/internal/services"
)

func main() {
	cfg, logger := cli.LoadAndValidateConfig(applog.ComponentApp)

	ctx, stop := cli.SignalContext()
	defer stop()

	be := cli.InitBackend(ctx, logger, cfg)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Analytics:          services.NewAnalyticsService(be.Store),
		Sales:              services.NewSaleService(be.Store, be.Publisher),
		Store:              be.Store,
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting salesboard server",
			"port", cfg.Port,
			applog.FieldBackend, cfg.DataBackend,
			"events_enabled", be.Publisher != nil)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on :%s: %w", cfg.Port, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down server", "timeout", cfg.ShutdownTimeout)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()

	requests, serverErrors, suspicious, limited := srv.Stats()
	logger.Info("Server stopped",
		"requests", requests,
		"server_errors", serverErrors,
		"suspicious_requests", suspicious,
		"rate_limited", limited)

	cli.RunCleanup(logger, be.Cleanup)
	if err != nil {
		logger.Error("Server error", applog.FieldError, err)
		os.Exit(1)
	}
}
