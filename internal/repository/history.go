package repository

import (
	"context"
	"time"

	"vidtube/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WatchHistoryRepository records and lists the videos a user has watched.
type WatchHistoryRepository interface {
	// Record adds the video to the user's history or moves an existing entry to the front.
	Record(ctx context.Context, userID, videoID uint, at time.Time) error
	// List returns watched videos the user may still see, most recent first, with owners attached.
	List(ctx context.Context, userID uint) ([]models.Video, error)
}

type watchHistoryRepository struct {
	db *gorm.DB
}

// NewWatchHistoryRepository returns a new WatchHistoryRepository implementation.
func NewWatchHistoryRepository(db *gorm.DB) WatchHistoryRepository {
	return &watchHistoryRepository{db: db}
}

func (r *watchHistoryRepository) Record(ctx context.Context, userID, videoID uint, at time.Time) error {
	entry := models.WatchHistoryEntry{UserID: userID, VideoID: videoID, WatchedAt: at}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "video_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"watched_at"}),
	}).Create(&entry).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *watchHistoryRepository) List(ctx context.Context, userID uint) ([]models.Video, error) {
	videos := []models.Video{}
	err := r.db.WithContext(ctx).
		Joins("JOIN watch_history_entries ON watch_history_entries.video_id = videos.id").
		Where("watch_history_entries.user_id = ?", userID).
		Where("videos.is_public = ? OR videos.owner_id = ?", true, userID).
		Order("watch_history_entries.watched_at DESC").
		Order("watch_history_entries.id DESC").
		Find(&videos).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if err := attachVideoOwners(ctx, r.db, videos); err != nil {
		return nil, err
	}
	return videos, nil
}
