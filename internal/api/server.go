package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/marceleta/crypto-monitor/internal/database"
	"github.com/marceleta/crypto-monitor/internal/evolution"
	"github.com/marceleta/crypto-monitor/internal/exchange"
	"github.com/marceleta/crypto-monitor/internal/messaging"
	"github.com/marceleta/crypto-monitor/pkg/config"
)

// Server represents the HTTP API server
type Server struct {
	cfg        *config.Config
	logger     *logrus.Logger
	router     *mux.Router
	httpServer *http.Server

	// Dependencies
	mysqlDB    *database.MySQLClient
	natsClient *messaging.NATSClient
	aggregator *evolution.Aggregator
	registry   *exchange.Registry
}

// NewServer creates a new API server
func NewServer(
	cfg *config.Config,
	logger *logrus.Logger,
	mysqlDB *database.MySQLClient,
	natsClient *messaging.NATSClient,
	aggregator *evolution.Aggregator,
	registry *exchange.Registry,
) *Server {
	s := &Server{
		cfg:        cfg,
		logger:     logger,
		mysqlDB:    mysqlDB,
		natsClient: natsClient,
		aggregator: aggregator,
		registry:   registry,
	}

	s.setupRoutes()

	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router = mux.NewRouter()

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.recoveryMiddleware)
	s.router.Use(s.corsMiddleware)

	apiV1 := s.router.PathPrefix("/api/v1").Subrouter()

	apiV1.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Asset lots
	apiV1.HandleFunc("/assets", s.handleCreateAsset).Methods("POST")
	apiV1.HandleFunc("/assets", s.handleListAssets).Methods("GET")
	apiV1.HandleFunc("/assets/{id:[0-9]+}", s.handleDeleteAsset).Methods("DELETE")

	// Tokens
	apiV1.HandleFunc("/tokens", s.handleCreateToken).Methods("POST")
	apiV1.HandleFunc("/tokens", s.handleListTokens).Methods("GET")
	apiV1.HandleFunc("/tokens/{id:[0-9]+}/history", s.handleTokenHistory).Methods("GET")

	// Exchange credentials
	apiV1.HandleFunc("/credentials", s.handleCreateCredential).Methods("POST")
	apiV1.HandleFunc("/credentials", s.handleListCredentials).Methods("GET")
	apiV1.HandleFunc("/credentials/{id:[0-9]+}/test", s.handleTestCredential).Methods("POST")

	// Dashboard
	apiV1.HandleFunc("/dashboard/evolution", s.handleEvolution).Methods("GET")
	apiV1.HandleFunc("/dashboard/allocation", s.handleAllocation).Methods("GET")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	addr := s.cfg.GetServerAddr()

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	s.logger.WithField("address", addr).Info("Starting HTTP server")

	return s.httpServer.ListenAndServe()
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Middleware functions

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   wrapped.statusCode,
			"duration": time.Since(start),
			"remote":   r.RemoteAddr,
		}).Info("HTTP request")
	})
}

func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.WithFields(logrus.Fields{
					"error": err,
					"path":  r.URL.Path,
				}).Error("Panic recovered")

				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()

		next.ServeHTTP(w, r)
	})
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"*"}),
	)(next)
}

// handleHealth checks the health status of all system components
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	services := map[string]bool{
		"mysql": s.mysqlDB.Health(r.Context()) == nil,
		"nats":  s.natsClient.IsConnected(),
	}

	for _, up := range services {
		if !up {
			status = "degraded"
		}
	}

	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"services": services,
	})
}

// Helpers

// userID resolves the authenticated user. Identity is enforced upstream;
// the gateway forwards it in the X-User-ID header.
func (s *Server) userID(r *http.Request) (int64, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return 0, fmt.Errorf("missing X-User-ID header")
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid X-User-ID header")
	}
	return id, nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
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
