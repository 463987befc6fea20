package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/threadwise/threadwise/internal/analytics"
	"github.com/threadwise/threadwise/internal/config"
	"github.com/threadwise/threadwise/internal/llm"
	"github.com/threadwise/threadwise/internal/twitter"
)

// ThreadFetcher resolves thread URLs into plain text.
type ThreadFetcher interface {
	FetchThread(ctx context.Context, url string) (string, error)
	FetchMany(ctx context.Context, urls []string, maxCount int) (string, error)
}

// Completer sends a prompt to the LLM completion API.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Server holds the HTTP server and its dependencies
type Server struct {
	config    *config.Config
	fetcher   ThreadFetcher
	llm       Completer
	analytics analytics.Sink
	memory    *analytics.Memory
	sheets    *analytics.SheetsClient
}

// NewServer creates a new HTTP server
func NewServer(cfg *config.Config) (*Server, error) {
	memory := analytics.NewMemory()

	server := &Server{
		config:    cfg,
		fetcher:   twitter.NewClient(cfg.XBearerToken),
		llm:       llm.NewClient(cfg.OpenRouterAPIKey, cfg.OpenRouterModel, cfg.MaxAttempts),
		analytics: memory,
		memory:    memory,
	}

	if cfg.SheetsConfigured() {
		sheetsClient, err := analytics.NewSheetsClient(context.Background(), cfg.GoogleClientEmail, cfg.GooglePrivateKey, cfg.SpreadsheetID)
		if err != nil {
			// Analytics are best-effort; run memory-only rather than
			// refusing to start.
			log.Printf("Sheets analytics disabled: %v", err)
		} else {
			server.sheets = sheetsClient
		}
	}

	return server, nil
}

// SetupRoutes configures HTTP routes
func (s *Server) SetupRoutes() *mux.Router {
	r := mux.NewRouter()

	r.Use(s.corsMiddleware)
	r.Use(s.loggingMiddleware)

	r.HandleFunc("/summarize", s.summarizeHandler).Methods("POST", "OPTIONS")
	r.HandleFunc("/crypto-explain", s.cryptoExplainHandler).Methods("POST", "OPTIONS")
	r.HandleFunc("/track-visit", s.trackVisitHandler).Methods("GET", "POST", "OPTIONS")
	r.HandleFunc("/analytics-dashboard", s.analyticsDashboardHandler).Methods("GET")
	r.HandleFunc("/init-sheets", s.initSheetsHandler).Methods("GET")
	r.HandleFunc("/health", s.healthHandler).Methods("GET")

	return r
}

// FlushAnalytics drains buffered analytics rows into Google Sheets.
// Called by the cron scheduler; a no-op when Sheets is not configured.
func (s *Server) FlushAnalytics(ctx context.Context) error {
	if s.sheets == nil {
		return nil
	}

	rows := s.memory.DrainPending()
	if len(rows) == 0 {
		return nil
	}

	if err := s.sheets.AppendRows(ctx, rows); err != nil {
		s.memory.Requeue(rows)
		return err
	}
	log.Printf("Flushed analytics rows to Sheets count=%d", len(rows))
	return nil
}

// healthHandler provides health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}

// Middleware functions

// corsMiddleware adds CORS headers and answers preflight requests
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the ResponseWriter to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start)
		log.Printf("%s %s %d %v", r.Method, r.URL.Path, wrapped.statusCode, duration)
	})
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
