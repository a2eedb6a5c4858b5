package handler

import (
	"embed"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/wadjakorntonsri/visitlog/pkg/core/clientip"
	"github.com/wadjakorntonsri/visitlog/pkg/core/domain"
	"github.com/wadjakorntonsri/visitlog/pkg/ports"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.New("").Funcs(template.FuncMap{
	"timestamp": func(t time.Time) string { return t.UTC().Format(domain.TimestampLayout) },
}).ParseFS(templateFS, "templates/*.html"))

// CSVHeader is the first row of every export
var CSVHeader = []string{"id", "address", "userAgent", "referer", "path", "timestamp"}

type HTTPHandler struct {
	service   ports.VisitService
	resolver  clientip.Resolver
	logsLimit int
	log       *zap.Logger
}

func NewHTTPHandler(service ports.VisitService, resolver clientip.Resolver, logsLimit int, log *zap.Logger) *HTTPHandler {
	if logsLimit <= 0 {
		logsLimit = 1000
	}
	return &HTTPHandler{service: service, resolver: resolver, logsLimit: logsLimit, log: log}
}

// LogResponse payload
type LogResponse struct {
	Status   string `json:"status"`
	Address  string `json:"address"`
	ID       int64  `json:"id,omitempty"`
	Recorded bool   `json:"recorded"`
}

// Index renders the landing page, which logs itself from the browser
func (h *HTTPHandler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", nil)
}

// Log records the calling client. A storage failure still answers 200.
func (h *HTTPHandler) Log(w http.ResponseWriter, r *http.Request) {
	address, visit := h.record(r)

	resp := LogResponse{Status: "ok", Address: address}
	if visit != nil {
		resp.ID = visit.ID
		resp.Recorded = true
	}
	writeJSON(w, http.StatusOK, resp)
}

// Visit records the calling client and greets it in plain text
func (h *HTTPHandler) Visit(w http.ResponseWriter, r *http.Request) {
	address, _ := h.record(r)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Hello! Your IP is: %s\n", address)
}

// record resolves and persists the visit. Write errors are logged by the
// service and swallowed here; a nil visit means nothing was stored.
func (h *HTTPHandler) record(r *http.Request) (string, *domain.Visit) {
	address := h.resolver.Resolve(r.Header, r.RemoteAddr)

	path := r.FormValue("path")
	if path == "" {
		path = r.URL.Path
	}

	visit, err := h.service.RecordVisit(r.Context(), address, r.UserAgent(), r.Referer(), path)
	if err != nil {
		return address, nil
	}
	return address, visit
}

// Logs renders the most recent visits as an HTML table
func (h *HTTPHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, h.logsLimit)

	visits, err := h.service.ListVisits(r.Context(), limit)
	if err != nil {
		http.Error(w, "Could not read visit log", http.StatusInternalServerError)
		return
	}

	h.render(w, "logs.html", map[string]interface{}{
		"Visits": visits,
		"Limit":  limit,
	})
}

// ExportCSV streams every visit, oldest first, as visitors.csv
func (h *HTTPHandler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	visits, err := h.service.ExportVisits(r.Context())
	if err != nil {
		http.Error(w, "Could not read visit log", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="visitors.csv"`)
	w.WriteHeader(http.StatusOK)

	if err := WriteCSV(w, visits); err != nil {
		// Headers are already out; the client sees a truncated file.
		h.log.Error("csv export interrupted", zap.Error(err))
	}
}

// WriteCSV writes the header row then one row per visit
func WriteCSV(w io.Writer, visits []domain.Visit) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	for _, v := range visits {
		row := []string{
			strconv.FormatInt(v.ID, 10),
			v.Address,
			v.UserAgent,
			v.Referer,
			v.Path,
			v.Timestamp.UTC().Format(domain.TimestampLayout),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ListVisits returns the most recent visits as JSON
func (h *HTTPHandler) ListVisits(w http.ResponseWriter, r *http.Request) {
	limit := parseLimit(r, h.logsLimit)

	visits, err := h.service.ListVisits(r.Context(), limit)
	if err != nil {
		http.Error(w, "Could not read visit log", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":  visits,
		"limit": limit,
	})
}

// Stats returns aggregated visit statistics
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		http.Error(w, "Could not read visit log", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *HTTPHandler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("template render failed", zap.String("template", name), zap.Error(err))
	}
}

// parseLimit reads ?limit=, falling back on missing, malformed or non-positive input
func parseLimit(r *http.Request, fallback int) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return fallback
	}
	return limit
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
