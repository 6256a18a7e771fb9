package main

import (
	"context"
	"log"
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
	cfg := config.Load()
	zlog, err := bootstrap.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}

	startCtx, startCancel := context.WithTimeout(context.Background(), 30*time.Second)
	app, err := bootstrap.New(startCtx, cfg, zlog)
	startCancel()
	if err != nil {
		zlog.Fatal("startup failed", zap.Error(err))
	}
	defer app.Close()

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Graceful shutdown on SIGINT or SIGTERM
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.Worker().Start(ctx)
	}()

	<-sigs
	zlog.Info("shutdown signal received")
	cancel()

	// In-flight evaluations finish or hit the lock TTL.
	wg.Wait()
	zlog.Info("worker exited cleanly")
}
