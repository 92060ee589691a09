package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ecotrack/ecotrack/internal/config"
)

// SessionCookie builds an auth cookie with the hardening flags shared by the
// access and refresh cookies: HttpOnly, SameSite Strict, and Secure unless
// the server runs in dev mode (plain http://localhost).
func SessionCookie(cfg *config.Config, name, value string, ttl time.Duration) *fiber.Cookie {
	cookie := &fiber.Cookie{
		Name:     name,
		Value:    value,
		MaxAge:   int(ttl.Seconds()),
		Secure:   true,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteStrictMode,
	}

	if cfg.DevMode {
		cookie.Secure = false
	}

	return cookie
}

// ExpiredCookie builds a cookie that clears the named one on the client.
func ExpiredCookie(cfg *config.Config, name string) *fiber.Cookie {
	cookie := SessionCookie(cfg, name, "", 0)
	cookie.MaxAge = -1
	cookie.Expires = time.Unix(0, 0)

	return cookie
}
