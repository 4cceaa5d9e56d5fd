package api

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"vnmarket-stream/core"
	"vnmarket-stream/database"
	"vnmarket-stream/events"
	"vnmarket-stream/wsserver"
)

// HealthChecker is implemented by database.DB.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Server exposes the health, metrics, history and WebSocket upgrade
// surface described for the pipeline's HTTP API.
type Server struct {
	orchestrator *core.Orchestrator
	repo         *database.Repository
	health       HealthChecker
	ws           *wsserver.Server
	corsOrigins  []string

	startedAt time.Time
}

func NewServer(orchestrator *core.Orchestrator, repo *database.Repository, health HealthChecker, ws *wsserver.Server, corsOrigins []string) *Server {
	return &Server{
		orchestrator: orchestrator,
		repo:         repo,
		health:       health,
		ws:           ws,
		corsOrigins:  corsOrigins,
		startedAt:    time.Now(),
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /ws/{channel}", s.ws.HandleWS)

	mux.HandleFunc("GET /api/history/ticks", s.handleTickHistory)
	mux.HandleFunc("GET /api/history/foreign", s.handleForeignHistory)
	mux.HandleFunc("GET /api/history/index", s.handleIndexHistory)
	mux.HandleFunc("GET /api/history/derivatives", s.handleDerivativesHistory)
	mux.HandleFunc("GET /api/snapshot", s.handleSnapshot)
	mux.HandleFunc("GET /api/alerts", s.handleAlerts)

	return s.loggingMiddleware(s.corsMiddleware(s.gzipMiddleware(mux)))
}

// Start runs the HTTP server until the process is killed.
func (s *Server) Start(addr string) error {
	log.Printf("api: listening on %s", addr)
	return http.ListenAndServe(addr, s.Routes())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	code := http.StatusOK
	if err := s.health.HealthCheck(ctx); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
		log.Printf("api: health check failed: %v", err)
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"uptime_sec": int(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.orchestrator.MarketSnapshot())
}

func (s *Server) handleAlerts(w http.ResponseWriter, r *http.Request) {
	n := getIntParam(r, "limit", 50, 1, 500)
	alertType := events.AlertType(r.URL.Query().Get("type"))
	severity := events.AlertSeverity(r.URL.Query().Get("severity"))
	writeJSON(w, http.StatusOK, s.orchestrator.Alerts.Recent(n, alertType, severity))
}

func (s *Server) handleTickHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	since := sinceParam(r)
	limit := getIntParam(r, "limit", 1000, 1, 10000)

	rows, err := s.repo.TickHistory(r.Context(), symbol, since, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleForeignHistory(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		respondWithError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	since := sinceParam(r)
	limit := getIntParam(r, "limit", 1000, 1, 10000)

	rows, err := s.repo.ForeignFlowHistory(r.Context(), symbol, since, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleIndexHistory(w http.ResponseWriter, r *http.Request) {
	indexID := r.URL.Query().Get("index")
	if indexID == "" {
		respondWithError(w, http.StatusBadRequest, "index is required")
		return
	}
	since := sinceParam(r)
	limit := getIntParam(r, "limit", 1000, 1, 10000)

	rows, err := s.repo.IndexHistory(r.Context(), indexID, since, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleDerivativesHistory(w http.ResponseWriter, r *http.Request) {
	contract := r.URL.Query().Get("contract")
	if contract == "" {
		respondWithError(w, http.StatusBadRequest, "contract is required")
		return
	}
	since := sinceParam(r)
	limit := getIntParam(r, "limit", 1000, 1, 10000)

	rows, err := s.repo.DerivativesHistory(r.Context(), contract, since, limit)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func sinceParam(r *http.Request) time.Time {
	hours := getFloatParam(r, "hours", 4, 0.1, 24*7)
	return time.Now().Add(-time.Duration(hours * float64(time.Hour)))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("api: failed to encode response: %v", err)
	}
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := "*"
		if len(s.corsOrigins) > 0 && s.corsOrigins[0] != "*" {
			origin = strings.Join(s.corsOrigins, ",")
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %v", r.Method, r.URL.Path, time.Since(start))
	})
}

type gzipResponseWriter struct {
	http.ResponseWriter
	writer *gzip.Writer
}

func (g *gzipResponseWriter) Write(data []byte) (int, error) {
	return g.writer.Write(data)
}

func (s *Server) gzipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/") || !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Encoding", "gzip")
		gz := gzip.NewWriter(w)
		defer gz.Close()
		next.ServeHTTP(&gzipResponseWriter{ResponseWriter: w, writer: gz}, r)
	})
}
