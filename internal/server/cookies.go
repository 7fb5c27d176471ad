package server

import (
	"time"

	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

func sessionCookie(name, value string, ttl time.Duration) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HTTPOnly: true,
		Secure:   true,
		SameSite: fiber.CookieSameSiteNoneMode,
	}
}

func (s *Server) setSessionCookies(c *fiber.Ctx, session models.Session) {
	c.Cookie(sessionCookie(accessTokenCookie, session.AccessToken, s.tokens.AccessTTL()))
	c.Cookie(sessionCookie(refreshTokenCookie, session.RefreshToken, s.tokens.RefreshTTL()))
}

func (s *Server) clearSessionCookies(c *fiber.Ctx) {
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		cookie := sessionCookie(name, "", 0)
		cookie.Expires = time.Unix(0, 0)
		cookie.MaxAge = -1
		c.Cookie(cookie)
	}
}
