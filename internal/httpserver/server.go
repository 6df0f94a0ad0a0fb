// Package httpserver exposes the feed service over HTTP: JSON content
// endpoints, the ranked feed, Prometheus metrics, and a websocket stream of
// newly created content.
package httpserver

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/feedrank/feedrank/internal/config"
	"github.com/feedrank/feedrank/internal/domain"
	"github.com/feedrank/feedrank/internal/metrics"
)

// Server is the HTTP server fronting the feed service.
type Server struct {
	cfg        *config.Config
	service    *domain.FeedService
	hub        *Hub
	logger     *slog.Logger
	httpServer *http.Server
}

// NewServer creates the HTTP server and wires the live hub into the feed
// service so create operations are pushed to websocket subscribers.
func NewServer(cfg *config.Config, service *domain.FeedService, logger *slog.Logger) *Server {
	s := &Server{
		cfg:     cfg,
		service: service,
		hub:     NewHub(logger),
		logger:  logger,
	}
	service.SetEventSink(s.hub)

	s.httpServer = &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      s.Handler(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler builds the route tree. Exposed so tests can run the server under
// httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.withLogging)
	r.Use(s.withMetrics)

	r.Post("/users", s.handleCreateUser)
	r.Post("/posts", s.handleCreatePost)
	r.Post("/comments", s.handleCreateComment)
	r.Get("/posts/{id}", s.handleGetPost)
	r.Get("/feed", s.handleGetFeed)
	r.Get("/ws", s.handleWebsocket)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// Start begins listening for HTTP requests. It blocks until the server is
// shut down or an error occurs.
func (s *Server) Start() error {
	s.logger.Info("starting HTTP server", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the HTTP server and disconnects live
// subscribers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// requestID ensures every request carries an X-Request-ID, generating one
// when the client did not supply it.
func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"request_id", w.Header().Get("X-Request-ID"),
			"duration", time.Since(start),
		)
	})
}

func (s *Server) withMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = r.URL.Path
		}
		metrics.HTTPRequestDuration.
			WithLabelValues(r.Method, route, fmt.Sprintf("%d", wrapped.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// Hijack lets the websocket upgrade work through the wrapper.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
