package models

import "time"

// Subscription is a directed follow edge from a subscriber to a channel.
type Subscription struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	SubscriberID uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair" json:"subscriberId"`
	ChannelID    uint      `gorm:"not null;uniqueIndex:idx_subscriptions_pair;index" json:"channelId"`
	CreatedAt    time.Time `json:"createdAt"`
}
