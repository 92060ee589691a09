// Package resetpassword handles the two halves of password recovery: the
// rate-limited request that mails a one-hour token, and the confirmation
// that consumes the token and rewrites the password.
package resetpassword

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/mailer"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

const (
	// RequestPath accepts the email asking for a reset link.
	RequestPath = "/api/reset-password-request"

	// ConfirmPath consumes the mailed token and sets the new password.
	ConfirmPath = "/api/reset-password-confirm"

	// mailSubject heads the recovery mail.
	mailSubject = "EcoTrack Password Reset"
)

// Service is the password reset handler service.
type Service struct {
	deps *handler.Deps
}

// Handler is the password reset handler.
var Handler = Service{}

// Init initializes both reset routes. Only the request half is rate
// limited; confirmation is gated by the token itself.
func (s *Service) Init(app *fiber.App, deps *handler.Deps) error {
	if app == nil || deps == nil {
		return errors.New(handler.ErrNilADFatalLogMsg)
	}

	s.deps = deps

	if deps.ResetLimiter != nil {
		app.Post(RequestPath, deps.ResetLimiter, s.PostRequest)
	} else {
		app.Post(RequestPath, s.PostRequest)
	}

	app.Post(ConfirmPath, s.PostConfirm)

	return nil
}

type resetRequest struct {
	Email string `json:"email"`
}

type confirmRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// PostRequest issues a reset token and mails the recovery link. An unknown
// email is reported as 404; a re-request overwrites and thereby invalidates
// any earlier token.
func (s *Service) PostRequest(c *fiber.Ctx) error {
	req := new(resetRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	user, err := s.deps.Users.FindByEmail(req.Email)
	if err != nil {
		if errors.Is(err, credstore.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "User not found",
			})
		}

		log.Error().Err(err).Msg("reset request lookup failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Password reset request failed",
		})
	}

	resetToken, err := s.deps.Users.IssueResetToken(user)
	if err != nil {
		log.Error().Err(err).Msg("failed to issue reset token")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Password reset request failed",
		})
	}

	body := mailer.ResetPasswordBody(s.deps.Cfg.Webserver.ClientBaseURL, resetToken)

	if err := s.deps.Mail.Send(user.Email, mailSubject, body); err != nil {
		log.Error().Err(err).Str("email", user.Email).Msg("failed to send reset mail")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to send password reset email",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password reset email sent",
	})
}

// PostConfirm sets the new password for the token holder. Unknown, expired
// and already-consumed tokens are indistinguishable to the caller.
func (s *Service) PostConfirm(c *fiber.Ctx) error {
	req := new(confirmRequest)

	if err := c.BodyParser(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if len(req.Password) < 6 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "password must be at least 6 characters long",
		})
	}

	user, err := s.deps.Users.FindByResetToken(req.Token)
	if err != nil {
		if errors.Is(err, credstore.ErrUserNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid or expired reset token",
			})
		}

		log.Error().Err(err).Msg("reset confirm lookup failed")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Password reset failed",
		})
	}

	if err := s.deps.Users.SetPassword(user, req.Password); err != nil {
		log.Error().Err(err).Msg("failed to set new password")

		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Password reset failed",
		})
	}

	return c.JSON(fiber.Map{
		"message": "Password reset successful",
	})
}
