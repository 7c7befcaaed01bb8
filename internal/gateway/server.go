// Package gateway exposes the intake engine over HTTP: the provider
// webhook, a health probe, and the category listing.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/publicsquare/intake/internal/config"
	"github.com/publicsquare/intake/internal/domain"
	"github.com/publicsquare/intake/internal/logging"
)

// Processor handles one inbound message to completion.
type Processor interface {
	Process(ctx context.Context, msg domain.InboundMessage) domain.ProcessResult
}

// CategoryLister returns the reporting categories in menu order.
type CategoryLister interface {
	ListCategories(ctx context.Context) []domain.Category
}

// Server is the intake HTTP server.
type Server struct {
	cfg        config.Config
	engine     Processor
	categories CategoryLister
	log        *logging.Logger

	startedAt  time.Time
	httpServer *http.Server
}

// New builds a server around the engine.
func New(cfg config.Config, engine Processor, categories CategoryLister, log *logging.Logger) *Server {
	return &Server{
		cfg:        cfg,
		engine:     engine,
		categories: categories,
		log:        log.Sub("gateway"),
	}
}

// Router assembles the route tree with standard middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/webhook", s.handleVerify)
	r.Post("/webhook", s.handleWebhook)
	r.Get("/categories", s.handleCategories)

	return r
}

// resolveBindAddr computes the listen address from config.
func resolveBindAddr(cfg config.ServerConfig) string {
	switch cfg.Bind {
	case "loopback":
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	case "lan":
		return fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	case "custom":
		host := cfg.CustomBindHost
		if host == "" {
			host = "0.0.0.0"
		}
		return fmt.Sprintf("%s:%d", host, cfg.Port)
	default:
		return fmt.Sprintf("127.0.0.1:%d", cfg.Port)
	}
}

// Start begins serving HTTP. It blocks until the context is cancelled or
// an error occurs.
func (s *Server) Start(ctx context.Context) error {
	addr := resolveBindAddr(s.cfg.Server)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BaseContext:  func(l net.Listener) context.Context { return ctx },
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.startedAt = time.Now()

	s.log.Info().
		Str("addr", ln.Addr().String()).
		Str("bind", s.cfg.Server.Bind).
		Msg("intake server ready")

	go func() {
		<-ctx.Done()
		s.log.Info().Msg("shutting down intake server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Addr returns the server's listen address, or empty string if not started.
func (s *Server) Addr() string {
	if s.httpServer != nil {
		return s.httpServer.Addr
	}
	return ""
}
