package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inovabank/nina/internal/app"
	"github.com/inovabank/nina/internal/config"
	"github.com/inovabank/nina/internal/logging"
)

func main() {
	log := logging.Init()
	defer logging.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("config error", "err", err)
	}

	ctx := context.Background()
	result, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatalw("startup failed", "err", err)
	}
	defer func() {
		if err := result.Cleanup(); err != nil {
			log.Warnw("cleanup failed", "err", err)
		}
	}()

	log.Infow("speech chain resolved",
		"provider", result.Speech.Provider,
		"backends", result.Speech.Backends,
		"detail", result.Speech.Detail,
	)

	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: result.API.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()
	result.Sessions.StartJanitor(runCtx, 5*time.Second)

	go func() {
		log.Infow("server listening", "addr", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("listen error", "err", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Infow("shutdown signal received")

	result.Speaker.Stop()
	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warnw("graceful shutdown failed", "err", err)
		_ = httpServer.Close()
	}

	log.Infow("shutdown complete")
}
