package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecotrack/ecotrack/internal/config"
	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/mailer"
	"github.com/ecotrack/ecotrack/internal/token"
)

// Deps bundles the services the web handlers draw on. The web service
// constructs one and hands it to every handler's Init.
type Deps struct {
	Cfg    *config.Config
	Users  *credstore.Store
	Tokens *token.Service
	Mail   mailer.Sender

	// LoginLimiter and ResetLimiter guard only the routes that mount them;
	// nothing else is rate limited.
	LoginLimiter fiber.Handler
	ResetLimiter fiber.Handler
}

// Service is the interface for a web handler service.
type Service interface {
	Init(app *fiber.App, deps *Deps) error
}
