// Package api implements Bob's HTTP API.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/nugget/bob-assistant/internal/agent"
	"github.com/nugget/bob-assistant/internal/buildinfo"
	"github.com/nugget/bob-assistant/internal/contacts"
	"github.com/nugget/bob-assistant/internal/email"
	"github.com/nugget/bob-assistant/internal/tasks"
	"github.com/nugget/bob-assistant/internal/weather"
)

// writeJSON encodes v as JSON to w, logging any errors at debug level.
// Errors here typically mean the client disconnected mid-response.
func writeJSON(w http.ResponseWriter, v any, logger *slog.Logger) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Debug("failed to write JSON response", "error", err)
	}
}

// Chatter runs one chat turn. [agent.Loop] satisfies it.
type Chatter interface {
	Run(ctx context.Context, req agent.Request) *agent.Result
}

// WeatherSource looks up current conditions.
type WeatherSource interface {
	Current(ctx context.Context, location string) (*weather.Report, error)
}

// Deps are the backends served over HTTP. Nil entries disable their
// routes with 503 Service Unavailable.
type Deps struct {
	Chat      Chatter
	Tasks     *tasks.Store
	Contacts  *contacts.Store
	Weather   WeatherSource
	EmailLogs *email.LogStore
}

// Server is the HTTP API server.
type Server struct {
	address        string
	port           int
	deps           Deps
	allowedOrigins []string
	logger         *slog.Logger
	server         *http.Server
}

// NewServer creates an API server. allowedOrigins configures CORS; an
// entry of "*" allows any origin.
func NewServer(address string, port int, deps Deps, allowedOrigins []string, logger *slog.Logger) *Server {
	return &Server{
		address:        address,
		port:           port,
		deps:           deps,
		allowedOrigins: allowedOrigins,
		logger:         logger,
	}
}

// Handler returns the fully wired HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/chat", s.handleChat)

	mux.HandleFunc("POST /api/tasks", s.handleTaskCreate)
	mux.HandleFunc("GET /api/tasks", s.handleTaskList)
	mux.HandleFunc("GET /api/tasks/{id}", s.handleTaskGet)
	mux.HandleFunc("PUT /api/tasks/{id}", s.handleTaskUpdate)
	mux.HandleFunc("DELETE /api/tasks/{id}", s.handleTaskDelete)

	mux.HandleFunc("GET /api/weather", s.handleWeather)
	mux.HandleFunc("GET /api/weather/{location}", s.handleWeather)

	mux.HandleFunc("GET /api/contacts", s.handleContactList)
	mux.HandleFunc("POST /api/contacts", s.handleContactCreate)
	mux.HandleFunc("GET /api/contacts.vcf", s.handleContactExport)
	mux.HandleFunc("POST /api/contacts.vcf", s.handleContactImport)
	mux.HandleFunc("GET /api/contacts/{alias}", s.handleContactGet)
	mux.HandleFunc("PUT /api/contacts/{alias}", s.handleContactUpdate)
	mux.HandleFunc("DELETE /api/contacts/{alias}", s.handleContactDelete)

	mux.HandleFunc("GET /api/email/logs", s.handleEmailLogs)

	mux.HandleFunc("GET /api/version", s.handleVersion)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /{$}", s.handleRoot)

	return s.withLogging(s.withCORS(mux))
}

// Start begins serving HTTP requests. It blocks until the server stops.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.address, s.port),
		Handler:      s.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // chat turns can run several model calls
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	addr := s.address
	if addr == "" {
		addr = "0.0.0.0"
	}
	s.logger.Info("starting API server", "address", addr, "port", s.port)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

// statusRecorder captures the response code for request logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"message": "Bob - Voice AI Assistant API is running",
		"version": buildinfo.Version,
		"status":  "healthy",
	}, s.logger)
}

func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, buildinfo.RuntimeInfo(), s.logger)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	writeJSON(w, map[string]string{
		"status":  "healthy",
		"service": "bob-voice-assistant",
	}, s.logger)
}

func (s *Server) respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	writeJSON(w, v, s.logger)
}

func (s *Server) errorResponse(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, map[string]any{
		"error": map[string]any{
			"message": message,
			"type":    errorType(code),
			"code":    code,
		},
	})
}

func errorType(code int) string {
	switch {
	case code == http.StatusNotFound:
		return "not_found_error"
	case code == http.StatusTooManyRequests:
		return "rate_limit_error"
	case code == http.StatusServiceUnavailable:
		return "unavailable_error"
	case code >= 500:
		return "server_error"
	default:
		return "invalid_request_error"
	}
}
