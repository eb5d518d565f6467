package server

import (
	"context"
	"log/slog"
	"net"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/routes"
)

// Server wraps the Fiber application of the development backend.
type Server struct {
	app *fiber.App
	cfg config.MockConfig
}

// Option customises the route dependencies.
type Option func(*routes.Deps)

// WithBcryptCost overrides the cost used to hash one-time codes.
func WithBcryptCost(cost int) Option {
	return func(d *routes.Deps) { d.BcryptCost = cost }
}

// New instantiates the HTTP server and delegates route wiring to
// routes.Setup. cache may be nil.
func New(cfg config.MockConfig, cache *redis.Client, logger *slog.Logger, opts ...Option) (*Server, error) {
	app := routes.NewApp(cfg)

	deps := routes.Deps{Cfg: cfg, Cache: cache, Logger: logger}
	for _, opt := range opts {
		opt(&deps)
	}
	if err := routes.Setup(app, deps); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg}, nil
}

// App exposes the Fiber application for in-process tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen starts the HTTP server on the configured port.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Serve starts the HTTP server on an existing listener.
func (s *Server) Serve(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
