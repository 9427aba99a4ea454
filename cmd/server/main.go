package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mocky70025/eventplatform-real-sub003/internal/app"
	"github.com/mocky70025/eventplatform-real-sub003/internal/config"
	"github.com/mocky70025/eventplatform-real-sub003/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	logg, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logg.Sync()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	application, err := app.New(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to initialize app", "error", err)
	}

	go func() {
		if err := application.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("http server failed", "error", err)
		}
	}()

	logg.Info("server started", "port", cfg.AppPort)

	<-ctx.Done()

	logg.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		10*time.Second,
	)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		logg.Fatal("graceful shutdown failed", "error", err)
	}

	logg.Info("server stopped cleanly")
}
