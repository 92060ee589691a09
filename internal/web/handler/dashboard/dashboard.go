// Package dashboard serves the protected dashboard payload.
package dashboard

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ecotrack/ecotrack/internal/livedata/gateway"
	"github.com/ecotrack/ecotrack/internal/web/handler"
	"github.com/ecotrack/ecotrack/internal/web/middleware/identity"
)

const (
	// Path is the dashboard endpoint.
	Path = "/api/dashboard"
)

// Service is the dashboard handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the dashboard handler.
var Handler = Service{}

// Init initializes the dashboard handler behind the auth gate.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, identity.RequireAuth, s.Get)

	return nil
}

// Get returns the dashboard bootstrap data: who is logged in and where the
// live sensor feed lives.
func (s *Service) Get(c *fiber.Ctx) error {
	user := identity.FromContext(c)

	return c.JSON(fiber.Map{
		"message":      "Welcome to your dashboard",
		"user":         user,
		"liveDataPath": gateway.Path,
	})
}
