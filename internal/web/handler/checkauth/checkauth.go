// Package checkauth reports the current session state. It never errors:
// the SPA polls it on load to decide between the login screen and the
// dashboard, and an anonymous caller is a valid answer.
package checkauth

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ecotrack/ecotrack/internal/web/handler"
	"github.com/ecotrack/ecotrack/internal/web/middleware/identity"
)

const (
	// Path is the session check endpoint.
	Path = "/api/check-auth"
)

// Service is the check-auth handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the check-auth handler.
var Handler = Service{}

// Init initializes the check-auth handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, s.Get)

	return nil
}

// Get returns the resolved user, or an explicit null for anonymous callers.
func (s *Service) Get(c *fiber.Ctx) error {
	if user := identity.FromContext(c); user != nil {
		return c.JSON(fiber.Map{"user": user})
	}

	return c.JSON(fiber.Map{"user": nil})
}
