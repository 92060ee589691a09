// Package logout handles session teardown.
package logout

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ecotrack/ecotrack/internal/web/handler"
)

const (
	// Path is the logout endpoint.
	Path = "/api/logout"
)

// Service is the logout handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the logout handler.
var Handler = Service{}

// Init initializes the logout handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	app.Post(Path, s.Post)

	return nil
}

// Post clears both session cookies. Idempotent: logging out without a
// session succeeds all the same.
func (s *Service) Post(c *fiber.Ctx) error {
	c.Cookie(handler.ExpiredCookie(s.deps.Cfg, handler.AccessCookie))
	c.Cookie(handler.ExpiredCookie(s.deps.Cfg, handler.RefreshCookie))

	return c.JSON(fiber.Map{
		"message": "Logged out successfully",
	})
}
