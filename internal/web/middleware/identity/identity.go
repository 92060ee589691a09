// Package identity resolves the requesting user from the access token
// cookie. Resolution never fails a request: a missing, malformed or expired
// token degrades to an anonymous caller, and only RequireAuth turns the
// absence of an identity into an error.
package identity

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/ecotrack/ecotrack/internal/credstore"
	"github.com/ecotrack/ecotrack/internal/db/models"
	"github.com/ecotrack/ecotrack/internal/token"
	"github.com/ecotrack/ecotrack/internal/web/handler"
)

// localsKey is where Middleware stores the resolved user on the context.
const localsKey = "user"

// Resolve returns the user behind the request's access cookie, or nil for
// an anonymous caller. A broken token means "logged out", not an error.
func Resolve(c *fiber.Ctx, users *credstore.Store, tokens *token.Service) *models.User {
	raw := c.Cookies(handler.AccessCookie)
	if raw == "" {
		return nil
	}

	userID, err := tokens.Verify(raw, token.Access)
	if err != nil {
		log.Debug().Err(err).Msg("access token rejected")

		return nil
	}

	user, err := users.FindByID(userID)
	if err != nil {
		// the token outlived the account
		log.Debug().Err(err).Uint64("user_id", userID).Msg("token holder not found")

		return nil
	}

	return user
}

// Middleware resolves the caller once per request and stores the result in
// the context locals for handlers and RequireAuth.
func Middleware(users *credstore.Store, tokens *token.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user := Resolve(c, users, tokens); user != nil {
			c.Locals(localsKey, user)
		}

		return c.Next()
	}
}

// FromContext returns the user resolved by Middleware, or nil.
func FromContext(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(localsKey).(*models.User)

	return user
}

// RequireAuth rejects anonymous callers with 401. Mount it only on routes
// that mandate a session.
func RequireAuth(c *fiber.Ctx) error {
	if FromContext(c) == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"message": "Authentication required",
		})
	}

	return c.Next()
}
