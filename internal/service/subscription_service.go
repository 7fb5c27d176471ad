package service

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/repository"
)

type SubscriptionService struct {
	subscriptionRepo repository.SubscriptionRepository
	userRepo         repository.UserRepository
}

func NewSubscriptionService(subscriptionRepo repository.SubscriptionRepository, userRepo repository.UserRepository) *SubscriptionService {
	return &SubscriptionService{subscriptionRepo: subscriptionRepo, userRepo: userRepo}
}

func (s *SubscriptionService) requireUser(ctx context.Context, userID uint, notFound string) error {
	_, err := s.userRepo.GetPublicByID(ctx, userID)
	if models.IsCode(err, models.CodeNotFound) {
		return models.NewNotFoundMessage(notFound)
	}
	return err
}

// Toggle follows the channel, or unfollows it when already followed. It reports the resulting state.
func (s *SubscriptionService) Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	if subscriberID == channelID {
		return false, models.NewValidationError("You cannot subscribe to your own channel")
	}
	if err := s.requireUser(ctx, channelID, "Channel not found"); err != nil {
		return false, err
	}
	return s.subscriptionRepo.Toggle(ctx, subscriberID, channelID)
}

func (s *SubscriptionService) Subscribers(ctx context.Context, channelID uint) ([]models.OwnerSummary, error) {
	if err := s.requireUser(ctx, channelID, "Channel not found"); err != nil {
		return nil, err
	}
	return s.subscriptionRepo.ListSubscribers(ctx, channelID)
}

func (s *SubscriptionService) Channels(ctx context.Context, subscriberID uint) ([]models.OwnerSummary, error) {
	if err := s.requireUser(ctx, subscriberID, "User not found"); err != nil {
		return nil, err
	}
	return s.subscriptionRepo.ListChannels(ctx, subscriberID)
}
