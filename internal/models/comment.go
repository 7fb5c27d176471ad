package models

import "time"

// Comment is a flat, single-level remark on a video.
type Comment struct {
	ID        uint          `gorm:"primaryKey" json:"id"`
	Content   string        `gorm:"type:text;not null" json:"content"`
	OwnerID   uint          `gorm:"not null;index" json:"ownerId"`
	Owner     *OwnerSummary `gorm:"-" json:"owner,omitempty"`
	VideoID   uint          `gorm:"not null;index" json:"videoId"`
	CreatedAt time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}
