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

	"github.com/wadjakorntonsri/visitlog/pkg/adapters/handler"
	"github.com/wadjakorntonsri/visitlog/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/visitlog/pkg/config"
	"github.com/wadjakorntonsri/visitlog/pkg/core/services"
	"github.com/wadjakorntonsri/visitlog/pkg/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	// Initialize Repository; no durability means no service
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to open visit store", zap.Error(err))
	}
	defer repo.Close()

	// Initialize Service
	service := services.NewVisitService(repo, log)

	// Initialize Router
	mux := handler.NewRouter(cfg, service, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("database", cfg.DatabaseURL),
			zap.Int("trusted_proxy_hops", cfg.TrustedProxyHops),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Graceful shutdown failed", zap.Error(err))
	}
}
