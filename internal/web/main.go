// Package web owns the fiber application: middleware, route registration
// and the server lifecycle.
package web

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/ecotrack/ecotrack/internal/config"
	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/livedata/gateway"
	fiberlogger "github.com/ecotrack/ecotrack/internal/logger/adapter/fiber"
	"github.com/ecotrack/ecotrack/internal/mailer"
	"github.com/ecotrack/ecotrack/internal/ratelimit"
	"github.com/ecotrack/ecotrack/internal/token"
	"github.com/ecotrack/ecotrack/internal/web/handler"
	"github.com/ecotrack/ecotrack/internal/web/handler/checkauth"
	"github.com/ecotrack/ecotrack/internal/web/handler/dashboard"
	"github.com/ecotrack/ecotrack/internal/web/handler/login"
	"github.com/ecotrack/ecotrack/internal/web/handler/logout"
	"github.com/ecotrack/ecotrack/internal/web/handler/profile"
	"github.com/ecotrack/ecotrack/internal/web/handler/refresh"
	"github.com/ecotrack/ecotrack/internal/web/handler/register"
	"github.com/ecotrack/ecotrack/internal/web/handler/resetpassword"
	"github.com/ecotrack/ecotrack/internal/web/middleware/identity"
)

// CheckAliveURI answers load balancer health checks.
const CheckAliveURI = "/checkalive"

// Service represents the web service.
type Service struct {
	App          *fiber.App
	cfg          *config.Config
	fastShutDown bool
	alive        atomic.Bool
	db           *gorm.DB
}

// Start starts the web service on the given address.
func (s *Service) Start(addr string) error {
	var doneFiber = make(chan bool)

	go func() {
		if err := s.App.Listen(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Msgf("fiber listen error: %v", err)
		}

		doneFiber <- true
	}()

	<-doneFiber // wait for fiber to stop

	return nil
}

// WaitShutdown waits for graceful shutdown of the web service.
func (s *Service) WaitShutdown() {
	irqSig := make(chan os.Signal, 1)
	signal.Notify(irqSig, syscall.SIGINT, syscall.SIGTERM)

	sig := <-irqSig
	log.Info().Msgf("shutdown request (signal: %v)", sig)

	// Graceful shutdown for reverse proxies: fail the health check first so
	// the LB stops routing here before connections are torn down.
	if !s.fastShutDown {
		log.Info().Msgf(
			"graceful shutdown: return 503 while %d seconds to let LB to remove this pod from active targets",
			s.cfg.Webserver.ShutDownTime,
		)

		s.alive.Store(false)
		time.Sleep(time.Duration(s.cfg.Webserver.ShutDownTime) * time.Second)
	}

	serverShutdown := make(chan struct{})

	go func() {
		log.Info().Msg("stopping http server ...")

		err := s.App.Shutdown()
		if err != nil {
			log.Error().Err(err).Msg("")
		}

		serverShutdown <- struct{}{}
	}()

	<-serverShutdown
	log.Info().Msg("http server was stopped ... good bye...")
}

// New creates a new web service with the given configuration. The mail
// sender and rate limit stores come from the daemon so deployments can
// swap the backing implementations.
func New(cfg *config.Config, db *gorm.DB, mail mailer.Sender, loginHits, resetHits ratelimit.Store) *Service {
	if cfg == nil {
		panic("config cannot be nil")
	}

	if db == nil {
		panic("db cannot be nil")
	}

	app := fiber.New(
		fiber.Config{
			ReadBufferSize: 8192,
			AppName:        cfg.Title,
			CaseSensitive:  true,
			Prefork:        false,
			Immutable:      true,
			ErrorHandler:   errorHandler,
		},
	)

	service := &Service{
		cfg: cfg,
		App: app,
		db:  db,
	}
	service.alive.Store(true)

	app.Get(CheckAliveURI, func(c *fiber.Ctx) error {
		if !service.alive.Load() {
			return c.SendStatus(fiber.StatusServiceUnavailable)
		}

		return c.SendStatus(fiber.StatusOK)
	})

	// the SPA lives on another origin and sends its cookies along
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Webserver.URL,
		AllowCredentials: true,
	}))

	app.Use(fiberlogger.New(fiberlogger.Config{
		Config:        cfg.Log,
		CheckAliveURI: CheckAliveURI,
	}))

	users := credstore.New(db)
	tokens := token.New(
		cfg.Auth.AccessSecret,
		cfg.Auth.RefreshSecret,
		time.Duration(cfg.Auth.AccessTTLMinutes)*time.Minute,
		time.Duration(cfg.Auth.RefreshTTLDays)*24*time.Hour,
	)

	app.Use(identity.Middleware(users, tokens))

	deps := &handler.Deps{
		Cfg:    cfg,
		Users:  users,
		Tokens: tokens,
		Mail:   mail,
		LoginLimiter: ratelimit.New(ratelimit.Config{
			Max:       cfg.RateLimit.LoginMax,
			Window:    time.Duration(cfg.RateLimit.LoginWindowMinutes) * time.Minute,
			Message:   "Too many login attempts, please try again later.",
			KeyPrefix: "login",
		}, loginHits),
		ResetLimiter: ratelimit.New(ratelimit.Config{
			Max:       cfg.RateLimit.ResetMax,
			Window:    time.Duration(cfg.RateLimit.ResetWindowMinutes) * time.Minute,
			Message:   "Too many password reset requests, please try again later.",
			KeyPrefix: "reset",
		}, resetHits),
	}

	// init handlers (each registers its own routes)
	initHandlers(app, deps)

	gateway.Register(app)

	return service
}

// initHandlers wires every route handler; a failed Init is a programming
// error, not a runtime condition.
func initHandlers(app *fiber.App, deps *handler.Deps) {
	inits := []struct {
		name string
		fn   func(*fiber.App, *handler.Deps) error
	}{
		{"register", register.Handler.Init},
		{"login", login.Handler.Init},
		{"logout", logout.Handler.Init},
		{"refresh", refresh.Handler.Init},
		{"checkauth", checkauth.Handler.Init},
		{"dashboard", dashboard.Handler.Init},
		{"profile", profile.Handler.Init},
		{"resetpassword", resetpassword.Handler.Init},
	}

	for _, h := range inits {
		if err := h.fn(app, deps); err != nil {
			log.Fatal().Err(err).Str("handler", h.name).Msg("handler init failed")
		}
	}
}

// errorHandler is the catch-all: fiber errors keep their status, anything
// else is reduced to a generic 500 with no internal detail in the body.
func errorHandler(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) && fiberErr.Code != fiber.StatusInternalServerError {
		return c.Status(fiberErr.Code).JSON(fiber.Map{"error": fiberErr.Message})
	}

	log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")

	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": "Internal server error",
	})
}
