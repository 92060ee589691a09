// Package login handles credential checks and session establishment.
package login

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

const (
	// Path is the login endpoint.
	Path = "/api/login"
)

// Service is the login handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the login handler.
var Handler = Service{}

// Init initializes the login handler. The login rate limiter guards this
// route and no other.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	if deps.LoginLimiter != nil {
		app.Post(Path, deps.LoginLimiter, s.Post)
	} else {
		app.Post(Path, s.Post)
	}

	return nil
}

type request struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Post checks the credentials and, on success, sets both session cookies.
// Unknown email and wrong password are indistinguishable to the caller.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(request)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := s.deps.Users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, credstore.ErrUserNotFound) {
			return invalidCredentials(c)
		}

		log.Error().Err(err).Msg("login lookup failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	if !s.deps.Users.VerifyPassword(user, req.Password) {
		return invalidCredentials(c)
	}

	access, err := s.deps.Tokens.IssueAccess(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue access token")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	refresh, err := s.deps.Tokens.IssueRefresh(user.ID)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue refresh token")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Login failed",
		})
	}

	c.Cookie(handler.SessionCookie(s.deps.Cfg, handler.AccessCookie, access, s.deps.Tokens.AccessTTL()))
	c.Cookie(handler.SessionCookie(s.deps.Cfg, handler.RefreshCookie, refresh, s.deps.Tokens.RefreshTTL()))

	// the password hash is excluded from serialization on the model
	return c.JSON(fiber.Map{
		"message": "Login successful",
		"user":    user,
	})
}

// invalidCredentials is the uniform rejection for unknown email and wrong
// password alike, so responses cannot be used to enumerate accounts.
func invalidCredentials(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid credentials",
	})
}
