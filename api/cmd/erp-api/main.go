package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"techsync/api/internal/app"
	"techsync/api/internal/config"
	"techsync/api/internal/handle"
	"techsync/api/internal/httpserver"
	"techsync/api/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "erp-api:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	h := handle.New(handle.Deps{
		ERP:        a.ERP,
		Dashboard:  a.Dashboard,
		Sessions:   a.Sessions,
		Assistant:  a.Assistant,
		Engines:    a.Engines,
		Metrics:    a.Metrics,
		Gatherer:   a.Registry,
		Logger:     logger.With(zap.String("component", "http")),
		AskTimeout: cfg.AskTimeout,
		SessionTTL: cfg.SessionTTL,
	})
	srv := httpserver.New(httpserver.Addr(cfg.Port), h.Routes())

	errc := make(chan error, 1)
	go func() {
		logger.Info("erp-api listening",
			zap.String("addr", srv.Addr),
			zap.String("engine", a.Default.Name()),
			zap.String("model", a.Default.GetModel()))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
