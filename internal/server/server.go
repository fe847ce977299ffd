// ABOUTME: Local HTTP surface exposing the messenger stores over the action-parameter API
// ABOUTME: Single /api endpoint plus health and metrics, served with gorilla/mux

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spektr-im/spektr/internal/auth"
	"github.com/spektr-im/spektr/internal/chat"
	"github.com/spektr-im/spektr/internal/config"
	"github.com/spektr-im/spektr/internal/session"
)

// Server exposes the in-process stores over HTTP using the same
// action-parameter contract as the remote endpoint: POST /api?action=<op>
// with a JSON body. It serves the single signed-in identity of this
// process; it is a loopback/dev surface, not a multi-tenant backend.
type Server struct {
	cfg      *config.Config
	sessions *session.Store
	chats    *chat.Store
	verifier *auth.JWTVerifier
	logger   *slog.Logger

	httpServer *http.Server
}

// New creates a Server over the given stores.
func New(cfg *config.Config, sessions *session.Store, chats *chat.Store, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		sessions: sessions,
		chats:    chats,
		verifier: auth.NewJWTVerifier([]byte(cfg.Auth.JWTSecret)),
		logger:   logger.With("component", "server"),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	api := http.Handler(http.HandlerFunc(s.handleAPI))
	api = s.corsMiddleware(api)
	api = metricsMiddleware(api)
	r.Handle("/api", api).Methods(http.MethodPost, http.MethodOptions)

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	if s.cfg.Metrics.Enabled {
		r.Handle(s.cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
	}

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Server.HTTPAddr,
		Handler:      s.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", s.cfg.Server.HTTPAddr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.logger.Info("shutting down http server")
	return s.httpServer.Shutdown(shutdownCtx)
}

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// corsMiddleware mirrors the permissive CORS policy of the original
// endpoint, including the preflight response.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Max-Age", "86400")
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
