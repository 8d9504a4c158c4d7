// Package httpapi exposes the vault over HTTP: route wiring, JSON
// request/response shaping, the bearer-token authorization gate, and the
// mapping of core error kinds to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/passvault/passvault/internal/logging"
	"github.com/passvault/passvault/internal/server/config"
	"github.com/passvault/passvault/internal/server/services"
)

type Server struct {
	address       string
	logger        logging.Logger
	users         *services.UserService
	entries       *services.EntryService
	jwtSecret     []byte
	tokenIssuer   string
	tokenAudience string
}

func NewServer(cfg *config.Config, l logging.Logger, us *services.UserService, es *services.EntryService) *Server {
	return &Server{
		address:       cfg.EndpointAddr,
		logger:        l.With("module", "http_server"),
		users:         us,
		entries:       es,
		jwtSecret:     []byte(cfg.SecretKey),
		tokenIssuer:   cfg.TokenIssuer,
		tokenAudience: cfg.TokenAudience,
	}
}

// Handler assembles the route table. Everything below the register/login
// pair goes through the authorization gate.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)

	mux.HandleFunc("GET /passwords", s.requireOwner(s.handleListEntries))
	mux.HandleFunc("POST /passwords", s.requireOwner(s.handleCreateEntry))
	mux.HandleFunc("GET /passwords/{id}", s.requireOwner(s.handleGetEntry))
	mux.HandleFunc("PUT /passwords/{id}", s.requireOwner(s.handleUpdateEntry))
	mux.HandleFunc("DELETE /passwords/{id}", s.requireOwner(s.handleDeleteEntry))
	mux.HandleFunc("POST /passwords/{id}/reveal", s.requireOwner(s.handleRevealEntry))

	mux.HandleFunc("PUT /change-master-password", s.requireOwner(s.handleChangeMasterPassword))

	mux.HandleFunc("GET /settings", s.requireOwner(s.handleGetSettings))
	mux.HandleFunc("PUT /settings", s.requireOwner(s.handleUpdateSettings))

	return mux
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {

	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}
