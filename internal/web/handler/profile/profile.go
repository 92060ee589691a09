// Package profile serves the protected account profile.
package profile

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ecotrack/ecotrack/internal/web/handler"
	"github.com/ecotrack/ecotrack/internal/web/middleware/identity"
)

const (
	// Path is the profile endpoint.
	Path = "/api/profile"
)

// Service is the profile handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the profile handler.
var Handler = Service{}

// Init initializes the profile handler behind the auth gate.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	app.Get(Path, identity.RequireAuth, s.Get)

	return nil
}

// Get returns the caller's account record, hash stripped by serialization.
func (s *Service) Get(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"user": identity.FromContext(c),
	})
}
