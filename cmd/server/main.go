package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"tle_judge/internal/app/bootstrap"
	"tle_judge/internal/platform/config"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()

	zlog, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	// 2. Database, Redis, repositories and services
	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := bootstrap.New(startCtx, cfg, zlog)
	if err != nil {
		startCancel()
		zlog.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	if err := app.Migrate(startCtx); err != nil {
		startCancel()
		zlog.Fatal("migration failed", zap.Error(err))
	}
	startCancel()

	// 3. Embedded evaluation worker
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	var wg sync.WaitGroup
	if cfg.RunEmbeddedWorker {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.Worker().Start(workerCtx)
		}()
	}

	// 4. HTTP Server
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      app.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 70 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 5. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.APIPort))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("could not listen", zap.String("port", cfg.APIPort), zap.Error(err))
		}
	}()

	<-stop // Wait for interrupt signal

	zlog.Info("shutting down server")
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	wg.Wait()

	zlog.Info("server and worker stopped gracefully")
}
