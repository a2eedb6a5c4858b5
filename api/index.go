package handler

import (
	"net/http"

	"github.com/wadjakorntonsri/visitlog/pkg/adapters/handler"
	"github.com/wadjakorntonsri/visitlog/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/visitlog/pkg/config"
	"github.com/wadjakorntonsri/visitlog/pkg/core/services"
	"github.com/wadjakorntonsri/visitlog/pkg/logger"
)

var mux http.Handler

func init() {
	cfg := config.Load()

	log, err := logger.New(cfg.AppEnv)
	if err != nil {
		panic(err)
	}

	// Note: On Vercel, a local sqlite file is ephemeral unless DATABASE_URL points at libsql://
	repo, err := sqlite.NewSQLiteRepository(cfg.DatabaseURL)
	if err != nil {
		panic(err)
	}

	service := services.NewVisitService(repo, log)
	mux = handler.NewRouter(cfg, service, log)
}

// Handler is the entrypoint for Vercel
func Handler(w http.ResponseWriter, r *http.Request) {
	mux.ServeHTTP(w, r)
}
