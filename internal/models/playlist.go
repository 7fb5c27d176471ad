package models

import "time"

// Playlist is an ordered, duplicate-free collection of videos owned by a user.
type Playlist struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Name        string    `gorm:"not null;size:120" json:"name"`
	Description string    `gorm:"type:text;not null;default:''" json:"description"`
	OwnerID     uint      `gorm:"not null;index" json:"ownerId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// PlaylistVideo is a membership row. Insertion order is the row ID.
type PlaylistVideo struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PlaylistID uint      `gorm:"not null;uniqueIndex:idx_playlist_videos_member" json:"playlistId"`
	VideoID    uint      `gorm:"not null;uniqueIndex:idx_playlist_videos_member;index" json:"videoId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PlaylistDetail is the canonical single-playlist response: the playlist plus its populated videos.
type PlaylistDetail struct {
	Playlist
	Videos []Video `json:"videos"`
}
