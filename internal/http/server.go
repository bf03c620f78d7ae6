// Package http serves the ledger as a JSON API for the presentation layer.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"gagyebu/internal/backend"
	"gagyebu/internal/log"
	"gagyebu/internal/services"
	"gagyebu/internal/session"
)

// Deps are the services the handlers call. Ready may be nil.
type Deps struct {
	Transactions *services.TransactionService
	FixedItems   *services.FixedItemService
	Ledger       *services.Ledger
	Verifier     *session.Verifier
	Ready        backend.Pinger
	Logger       *log.Logger

	// RequestsPerMinute limits writes per client IP; 0 uses the default.
	RequestsPerMinute int
}

type Server struct {
	http.Server
	deps    Deps
	limiter *rateLimiter

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.New(log.DefaultConfig())
	}
	s := &Server{
		deps:    deps,
		limiter: newRateLimiter(deps.RequestsPerMinute),
	}

	r := mux.NewRouter()
	r.Use(log.Middleware(deps.Logger, extractClientIP))
	r.Use(securityHeaders)
	r.Use(s.rateLimit)

	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/api/vocabulary", handleVocabulary).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.requireSession)

	api.HandleFunc("/months/{month}", s.handleMonthView).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/comparison", s.handleComparison).Methods(http.MethodGet)

	api.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	api.HandleFunc("/transactions/reset", s.handleResetAll).Methods(http.MethodPost)
	api.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	api.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)
	api.HandleFunc("/months/{month}/transactions/reset", s.handleResetMonth).Methods(http.MethodPost)

	api.HandleFunc("/months/{month}/fixed-items", s.handleListFixedItems).Methods(http.MethodGet)
	api.HandleFunc("/months/{month}/fixed-items", s.handleCreateFixedItem).Methods(http.MethodPost)
	api.HandleFunc("/months/{month}/fixed-items/{id}", s.handleUpdateFixedItem).Methods(http.MethodPut)
	api.HandleFunc("/months/{month}/fixed-items/{id}", s.handleRemoveFixedItem).Methods(http.MethodDelete)
	api.HandleFunc("/fixed-items/reset-history", s.handleResetHistory).Methods(http.MethodPost)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown stops the limiter cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.limiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.deps.Ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Ready.Ping(ctx); err != nil {
			log.FromContext(r.Context()).Warn("Readiness check failed", log.FieldError, err)
			http.Error(w, "store unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
