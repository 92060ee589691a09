// Package refresh exchanges a valid refresh cookie for a fresh access
// cookie. The refresh token itself is never rotated; it rides out its
// seven days untouched.
package refresh

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/token"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

const (
	// Path is the token refresh endpoint.
	Path = "/api/refresh-token"
)

// Service is the refresh handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the refresh handler.
var Handler = Service{}

// Init initializes the refresh handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	app.Post(Path, s.Post)

	return nil
}

// Post re-issues the access cookie when the refresh cookie checks out.
// Missing and invalid cookies are both 403, with distinct messages.
func (s *Service) Post(c *fiber.Ctx) error {
	raw := c.Cookies(handler.RefreshCookie)
	if raw == "" {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Refresh token not provided",
		})
	}

	userID, err := s.deps.Tokens.Verify(raw, token.Refresh)
	if err != nil {
		log.Debug().Err(err).Msg("refresh token rejected")

		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"message": "Invalid refresh token",
		})
	}

	access, err := s.deps.Tokens.IssueAccess(userID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue access token")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Token refresh failed",
		})
	}

	c.Cookie(handler.SessionCookie(s.deps.Cfg, handler.AccessCookie, access, s.deps.Tokens.AccessTTL()))

	return c.JSON(fiber.Map{
		"message": "Token refreshed successfully",
	})
}
