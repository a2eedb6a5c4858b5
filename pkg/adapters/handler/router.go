package handler

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/wadjakorntonsri/visitlog/pkg/config"
	"github.com/wadjakorntonsri/visitlog/pkg/core/clientip"
	"github.com/wadjakorntonsri/visitlog/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.VisitService, log *zap.Logger) http.Handler {
	resolver := clientip.Resolver{TrustedHops: cfg.TrustedProxyHops}
	h := NewHTTPHandler(service, resolver, cfg.LogsLimit, log)
	mw := NewMiddleware(log)

	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		res := map[string]string{
			"message": "ok",
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(&res)
	})
	mux.Handle("GET /metrics", promhttp.Handler())

	// Recording
	mux.HandleFunc("GET /{$}", h.Index)
	mux.HandleFunc("GET /log", h.Log)
	mux.HandleFunc("POST /log", h.Log)
	mux.HandleFunc("GET /visit", h.Visit)

	// Read-back views. No auth: keep these behind the proxy if exposed.
	mux.HandleFunc("GET /logs", h.Logs)
	mux.HandleFunc("GET /export.csv", h.ExportCSV)
	mux.HandleFunc("GET /api/v1/visits", h.ListVisits)
	mux.HandleFunc("GET /api/v1/stats", h.Stats)

	return mw.Recoverer(mw.RequestLogger(mux))
}
