// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// MediaAsset references a binary stored by the media host.
// An empty URL means the asset is absent. The storage ID never leaves the server.
type MediaAsset struct {
	URL       string `gorm:"column:url;size:1024" json:"url"`
	StorageID string `gorm:"column:storage_id;size:512" json:"-"`
}

// IsZero reports whether no asset is attached.
func (a MediaAsset) IsZero() bool {
	return a.URL == "" && a.StorageID == ""
}

// User represents an account on the platform.
type User struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Username     string     `gorm:"uniqueIndex;not null;size:30" json:"username"`
	Email        string     `gorm:"uniqueIndex;not null;size:254" json:"email"`
	Fullname     string     `gorm:"not null;size:120" json:"fullname"`
	Password     string     `gorm:"not null" json:"-"`
	Avatar       MediaAsset `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
	CoverImage   MediaAsset `gorm:"embedded;embeddedPrefix:cover_image_" json:"coverImage"`
	RefreshToken *string    `gorm:"type:text" json:"-"`
	IsAdmin      bool       `gorm:"not null;default:false" json:"isAdmin"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// OwnerSummary is the reduced public shape of a user embedded in other resources.
type OwnerSummary struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	Username string     `json:"username"`
	Fullname string     `json:"fullname"`
	Avatar   MediaAsset `gorm:"embedded;embeddedPrefix:avatar_" json:"avatar"`
}

// TableName maps OwnerSummary onto the users table.
func (OwnerSummary) TableName() string {
	return "users"
}

// OwnerColumns are the columns selected when preloading an OwnerSummary.
var OwnerColumns = []string{"id", "username", "fullname", "avatar_url"}

// AssetURL is the public projection of a MediaAsset.
type AssetURL struct {
	URL string `json:"url"`
}

// ChannelProfile is the public view of a channel together with its subscription counters.
type ChannelProfile struct {
	ID              uint     `json:"id"`
	Username        string   `json:"username"`
	Fullname        string   `json:"fullname"`
	Email           string   `json:"email"`
	Avatar          AssetURL `json:"avatar"`
	CoverImage      AssetURL `json:"coverImage"`
	SubscriberCount int64    `json:"subscriberCount"`
	SubscribedCount int64    `json:"subscribedCount"`
	IsSubscribed    bool     `json:"isSubscribed"`
}

// Session is the token pair issued on login or refresh.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}
