package models

import "time"

// Visibility values accepted when publishing or updating a video.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Video is a published media item owned by a user.
type Video struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	VideoFile   MediaAsset    `gorm:"embedded;embeddedPrefix:video_file_" json:"videoFile"`
	Thumbnail   MediaAsset    `gorm:"embedded;embeddedPrefix:thumbnail_" json:"thumbnail"`
	Title       string        `gorm:"not null;size:200" json:"title"`
	Description string        `gorm:"type:text;not null;default:''" json:"description"`
	Duration    float64       `gorm:"not null;default:0" json:"duration"`
	Views       int64         `gorm:"not null;default:0" json:"views"`
	IsPublic    bool          `gorm:"not null" json:"isPublic"`
	OwnerID     uint          `gorm:"not null;index" json:"ownerId"`
	Owner       *OwnerSummary `gorm:"-" json:"owner,omitempty"`
	CreatedAt   time.Time     `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// Visibility returns the textual visibility of the video.
func (v *Video) Visibility() string {
	if v.IsPublic {
		return VisibilityPublic
	}
	return VisibilityPrivate
}

// VisibleTo reports whether userID may read the video.
func (v *Video) VisibleTo(userID uint) bool {
	return v.IsPublic || v.OwnerID == userID
}

// WatchHistoryEntry records that a user watched a video. One row per (user, video);
// re-watching refreshes WatchedAt so the entry moves to the front.
type WatchHistoryEntry struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_video" json:"userId"`
	VideoID   uint      `gorm:"not null;uniqueIndex:idx_watch_history_user_video" json:"videoId"`
	WatchedAt time.Time `gorm:"not null;index" json:"watchedAt"`
}

// TableName returns the database table name for WatchHistoryEntry.
func (WatchHistoryEntry) TableName() string {
	return "watch_history_entries"
}
