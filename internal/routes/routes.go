package routes

import (
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/FotoFacturas/revamp-sub000/internal/auth"
	"github.com/FotoFacturas/revamp-sub000/internal/config"
	"github.com/FotoFacturas/revamp-sub000/internal/identity"
	"github.com/FotoFacturas/revamp-sub000/internal/middleware"
	"github.com/FotoFacturas/revamp-sub000/internal/notification"
	"github.com/FotoFacturas/revamp-sub000/internal/tickets"
)

const (
	legacyPrefix   = "/legacy"
	v2Prefix       = "/v2"
	idempotencyTTL = 24 * time.Hour
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg   config.MockConfig
	Cache *redis.Client
	// Notifier defaults to a LoggerNotifier on Logger.
	Notifier notification.Notifier
	// BcryptCost overrides the cost used to hash one-time codes.
	BcryptCost int
	Logger     *slog.Logger
}

// NewApp builds the Fiber application with the error handler both surfaces
// rely on.
func NewApp(cfg config.MockConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		BodyLimit:    16 * 1024 * 1024,
		ErrorHandler: errorHandler,

		DisableStartupMessage: true,
	})
}

// Setup configures middlewares and both API surfaces: the legacy flat API
// under /legacy and the enveloped API under /v2.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	notifier := d.Notifier
	if notifier == nil {
		notifier = notification.NewLoggerNotifier(d.Logger)
	}
	users := identity.NewService(identity.NewMemoryRepository())
	authSvc := auth.NewService(auth.Config{
		Secret:     []byte(d.Cfg.TokenSecret),
		FixedCode:  d.Cfg.OTPCode,
		BcryptCost: d.BcryptCost,
	}, users, notifier)
	ticketSvc := tickets.NewService(tickets.NewMemoryRepository())

	h := &handlers{users: users, auth: authSvc, tickets: ticketSvc, logger: d.Logger}
	rateLimiter := middleware.OTPRateLimit(d.Cache, d.Cfg.OTPPerMinute)

	RegisterLegacyRoutes(app.Group(legacyPrefix), h, rateLimiter)

	var idempotency fiber.Handler
	if d.Cache != nil {
		idempotency = middleware.Idempotency(d.Cache, idempotencyTTL, d.Logger)
	}
	RegisterV2Routes(app.Group(v2Prefix), h, rateLimiter, idempotency)

	return nil
}

// handlers holds the services shared by both surfaces.
type handlers struct {
	users   *identity.Service
	auth    *auth.Service
	tickets *tickets.Service
	logger  *slog.Logger
}

func currentUser(c *fiber.Ctx) identity.User {
	user, _ := middleware.CurrentUser(c)
	return user
}
