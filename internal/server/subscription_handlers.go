package server

import (
	"github.com/gofiber/fiber/v2"
)

// ToggleSubscription handles POST /api/v1/subscriptions/c/:channelId
func (s *Server) ToggleSubscription(c *fiber.Ctx) error {
	channelID, err := parseID(c, "channelId")
	if err != nil {
		return err
	}

	subscribed, err := s.subscriptionService.Toggle(c.UserContext(), currentUserID(c), channelID)
	if err != nil {
		return err
	}

	message := "Unsubscribed successfully"
	if subscribed {
		message = "Subscribed successfully"
	}
	return respond(c, fiber.StatusOK, fiber.Map{"subscribed": subscribed}, message)
}

// GetChannelSubscribers handles GET /api/v1/subscriptions/c/:channelId
func (s *Server) GetChannelSubscribers(c *fiber.Ctx) error {
	channelID, err := parseID(c, "channelId")
	if err != nil {
		return err
	}

	subscribers, err := s.subscriptionService.Subscribers(c.UserContext(), channelID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, subscribers, "Subscribers fetched successfully")
}

// GetSubscribedChannels handles GET /api/v1/subscriptions/u/:subscriberId
func (s *Server) GetSubscribedChannels(c *fiber.Ctx) error {
	subscriberID, err := parseID(c, "subscriberId")
	if err != nil {
		return err
	}

	channels, err := s.subscriptionService.Channels(c.UserContext(), subscriberID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, channels, "Subscribed channels fetched successfully")
}
