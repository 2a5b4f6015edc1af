// Package jsonrpc implements the wallet service protocol: JSON-RPC 2.0
// dispatch over POST /api/v2/requests plus the GET /api/v2/health probe.
package jsonrpc

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/keystore"
	"github.com/mintforge/mintforge/cmd/mintwallet-lite/internal/signer"
)

// Wallet service paths and auth scheme.
const (
	HealthPath   = "/api/v2/health"
	RequestsPath = "/api/v2/requests"

	authScheme = "VWT"
)

// ServerConfig holds the configuration for the JSON-RPC server.
type ServerConfig struct {
	Keystore *keystore.Keystore
	Signer   *signer.Signer
	Logger   *slog.Logger

	// Token guards the RPC surface. Empty disables authentication.
	Token string
}

// Server is the wallet protocol server with all methods registered.
type Server struct {
	handler *Handler
	token   string
	logger  *slog.Logger
}

// NewServer creates a server with the wallet methods registered.
func NewServer(cfg ServerConfig) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	handler := NewHandler(logger)
	NewWalletMethods(cfg.Keystore, cfg.Signer, logger).Register(handler)

	logger.Info("registered JSON-RPC methods",
		slog.Any("methods", handler.RegisteredMethods()),
	)

	return &Server{
		handler: handler,
		token:   cfg.Token,
		logger:  logger,
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case HealthPath:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))

	case RequestsPath:
		if !s.authorized(r) {
			s.logger.Warn("rejected RPC request with bad token")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(Response{
				JSONRPC: "2.0",
				Error:   ErrUnauthorized("invalid session token"),
			})
			return
		}
		s.handler.ServeHTTP(w, r)

	default:
		http.NotFound(w, r)
	}
}

// authorized checks the VWT session token. OPTIONS preflights pass so
// CORS keeps working.
func (s *Server) authorized(r *http.Request) bool {
	if s.token == "" || r.Method == http.MethodOptions {
		return true
	}
	auth := r.Header.Get("Authorization")
	scheme, token, ok := strings.Cut(auth, " ")
	return ok && scheme == authScheme && token == s.token
}

// Handler returns the underlying JSON-RPC handler, useful for tests and
// extra method registration.
func (s *Server) Handler() *Handler {
	return s.handler
}
