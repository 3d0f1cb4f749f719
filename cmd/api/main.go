package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/mohammadpnp/patient-import/internal/bootstrap"
	"github.com/mohammadpnp/patient-import/internal/config"
	"github.com/mohammadpnp/patient-import/internal/logging"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}

	logger := logging.InitLog(logging.ParseLevel(cfg.Service.LogLevel))
	defer func() { _ = logger.Sync() }()
	undo := zap.ReplaceGlobals(logger)
	defer undo()

	log := zap.S().Named("main")

	a, err := bootstrap.NewApp(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to initialize application: %v", err)
	}
	defer a.Close()

	server := bootstrap.NewHTTPServer(a)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	a.Worker.Start(workerCtx)

	go func() {
		log.Infof("listening on %s", cfg.Address())
		if err := server.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Errorf("graceful shutdown failed: %v", err)
	}

	stopWorkers()
	a.Worker.Wait()
}
