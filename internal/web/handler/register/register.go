// Package register handles account creation.
package register

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

const (
	// Path is the registration endpoint.
	Path = "/api/register"
)

// Service is the registration handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the registration handler.
var Handler = Service{}

// Init initializes the registration handler.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	app.Post(Path, s.Post)

	return nil
}

type request struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Post creates a new account. Validation and duplicate-key failures name
// the offending field; anything else collapses to a generic 500 so no
// internals leak.
func (s *Service) Post(c *fiber.Ctx) error {
	req := new(request)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	_, err := s.deps.Users.Create(req.Username, req.Email, req.Password)
	if err != nil {
		var (
			validationErr *credstore.ValidationError
			duplicateErr  *credstore.DuplicateKeyError
		)

		switch {
		case errors.As(err, &validationErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": validationErr.Field + " " + validationErr.Message,
			})
		case errors.As(err, &duplicateErr):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": duplicateErr.Error(),
			})
		default:
			log.Error().Err(err).Msg("registration failed")

			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Registration failed",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
	})
}
