package server

import "github.com/gofiber/fiber/v2"

// GetFeatureFlags lists every configured flag with its rollout and its state for the caller.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	return respond(c, fiber.StatusOK, s.featureFlags.Evaluate(currentUserID(c)), "Feature flags fetched successfully")
}
