package server

import (
	"strings"

	"vidtube/internal/middleware"
	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// accessTokenFrom reads the access token from its cookie or a bearer Authorization header.
func accessTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(accessTokenCookie); token != "" {
		return token
	}
	header := c.Get(fiber.HeaderAuthorization)
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// AuthRequired rejects requests without a valid, unrevoked access token and stores the
// authenticated user in locals for handlers.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, claims, err := s.userService.Authenticate(c.UserContext(), accessTokenFrom(c))
		if err != nil {
			return err
		}

		c.Locals("user", user)
		c.Locals("userID", user.ID)
		c.Locals("claims", claims)
		c.SetUserContext(middleware.WithUserID(c.UserContext(), user.ID))
		return c.Next()
	}
}

// OptionalAuth authenticates the request when a token is present and otherwise lets it
// through anonymously. An invalid token is still rejected.
func (s *Server) OptionalAuth() fiber.Handler {
	authRequired := s.AuthRequired()
	return func(c *fiber.Ctx) error {
		if accessTokenFrom(c) == "" {
			return c.Next()
		}
		return authRequired(c)
	}
}

// AdminRequired allows only administrators. It must run after AuthRequired.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := currentUserID(c)
		if userID == 0 {
			return models.NewUnauthorizedError("Unauthorized request")
		}
		isAdmin, err := s.userService.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return err
		}
		if !isAdmin {
			return models.NewForbiddenError("Admin access required")
		}
		return c.Next()
	}
}
