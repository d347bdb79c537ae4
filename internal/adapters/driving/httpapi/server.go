package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/cors"

	"github.com/custodia-labs/docs-agent/internal/core/domain"
	"github.com/custodia-labs/docs-agent/internal/logger"
)

// Server timeouts. The write timeout covers a full answer generation.
const (
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 5 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second
)

// Config configures the HTTP server.
type Config struct {
	// Port is the listen port. Default: 8000.
	Port int

	// AllowedOrigins are accepted by CORS.
	AllowedOrigins []string
}

// ConfigFromSettings builds a Config from application settings.
func ConfigFromSettings(s domain.ServerSettings) Config {
	return Config{Port: s.Port, AllowedOrigins: s.AllowedOrigins}
}

// Server serves the JSON API.
type Server struct {
	ports   *Ports
	config  Config
	handler http.Handler
}

// NewServer creates a server with every route registered.
func NewServer(ports *Ports, cfg Config) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating http server: %w", err)
	}
	if cfg.Port == 0 {
		cfg.Port = domain.DefaultServerPort
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{domain.DefaultAllowedOrigin}
	}

	s := &Server{ports: ports, config: cfg}

	mux := http.NewServeMux()
	for _, c := range s.controllers() {
		for _, route := range c.routes() {
			mux.HandleFunc(route.pattern, route.handler)
		}
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	s.handler = logRequests(c.Handler(mux))
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the listen address.
func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.config.Port)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.Addr(),
		Handler:      s.handler,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening on http://localhost%s", s.Addr())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http server shutdown: %w", err)
		}
		return nil
	}
}

// route binds a method-and-path pattern to a handler.
type route struct {
	pattern string
	handler http.HandlerFunc
}

type controller interface {
	routes() []route
}

func (s *Server) controllers() []controller {
	cs := []controller{
		&rootController{},
		&documentsController{ingest: s.ports.Ingest},
		&chatController{answer: s.ports.Answer},
		&projectsController{projects: s.ports.Project},
	}
	if s.ports.Settings != nil {
		cs = append(cs, &settingsController{settings: s.ports.Settings})
	}
	return cs
}
