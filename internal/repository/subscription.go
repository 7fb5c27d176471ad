package repository

import (
	"context"

	"vidtube/internal/models"

	"gorm.io/gorm"
)

// SubscriptionRepository defines persistence operations for channel subscriptions.
type SubscriptionRepository interface {
	// Toggle removes the edge if present, creates it otherwise, and reports the resulting state.
	Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error)
	ListSubscribers(ctx context.Context, channelID uint) ([]models.OwnerSummary, error)
	ListChannels(ctx context.Context, subscriberID uint) ([]models.OwnerSummary, error)
}

type subscriptionRepository struct {
	db *gorm.DB
}

// NewSubscriptionRepository returns a new SubscriptionRepository implementation.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) Toggle(ctx context.Context, subscriberID, channelID uint) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("subscriber_id = ? AND channel_id = ?", subscriberID, channelID).
		Delete(&models.Subscription{})
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	if res.RowsAffected > 0 {
		return false, nil
	}

	sub := models.Subscription{SubscriberID: subscriberID, ChannelID: channelID}
	if err := r.db.WithContext(ctx).Create(&sub).Error; err != nil {
		// A concurrent toggle already created the edge.
		if isUniqueConstraintError(err) {
			return true, nil
		}
		return false, models.NewInternalError(err)
	}
	return true, nil
}

func (r *subscriptionRepository) ListSubscribers(ctx context.Context, channelID uint) ([]models.OwnerSummary, error) {
	return r.listJoined(ctx, "subscriptions.subscriber_id", "subscriptions.channel_id = ?", channelID)
}

func (r *subscriptionRepository) ListChannels(ctx context.Context, subscriberID uint) ([]models.OwnerSummary, error) {
	return r.listJoined(ctx, "subscriptions.channel_id", "subscriptions.subscriber_id = ?", subscriberID)
}

func (r *subscriptionRepository) listJoined(ctx context.Context, joinColumn, where string, id uint) ([]models.OwnerSummary, error) {
	users := []models.OwnerSummary{}
	err := r.db.WithContext(ctx).
		Select("users.id, users.username, users.fullname, users.avatar_url").
		Joins("JOIN subscriptions ON users.id = "+joinColumn).
		Where(where, id).
		Order("subscriptions.created_at DESC").
		Find(&users).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}
