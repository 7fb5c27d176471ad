package repository

import (
	"context"

	"vidtube/internal/models"
	"vidtube/internal/observability"

	"gorm.io/gorm"
)

// PlaylistRepository defines persistence operations for playlists and their memberships.
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id uint) (*models.Playlist, error)
	// GetDetail returns the playlist with its videos in insertion order, each with its owner.
	// Private videos are listed only when viewerID owns them.
	GetDetail(ctx context.Context, id, viewerID uint) (*models.PlaylistDetail, error)
	ListByOwner(ctx context.Context, ownerID uint) ([]models.Playlist, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	Delete(ctx context.Context, id uint) error
	// AddVideo rejects a video that is already a member.
	AddVideo(ctx context.Context, playlistID, videoID uint) error
	// RemoveVideo succeeds whether or not the video was a member.
	RemoveVideo(ctx context.Context, playlistID, videoID uint) error
}

type playlistRepository struct {
	db *gorm.DB
}

// NewPlaylistRepository returns a new PlaylistRepository implementation.
func NewPlaylistRepository(db *gorm.DB) PlaylistRepository {
	return &playlistRepository{db: db}
}

func (r *playlistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	if err := r.db.WithContext(ctx).Create(playlist).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *playlistRepository) GetByID(ctx context.Context, id uint) (*models.Playlist, error) {
	var playlist models.Playlist
	if err := r.db.WithContext(ctx).First(&playlist, id).Error; err != nil {
		return nil, notFoundOr(err, "Playlist", id)
	}
	return &playlist, nil
}

func (r *playlistRepository) GetDetail(ctx context.Context, id, viewerID uint) (*models.PlaylistDetail, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "GetDetail", "playlists")
	defer span.End()

	playlist, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var videos []models.Video
	err = r.db.WithContext(ctx).
		Joins("JOIN playlist_videos ON playlist_videos.video_id = videos.id").
		Where("playlist_videos.playlist_id = ?", id).
		Where("videos.is_public = ? OR videos.owner_id = ?", true, viewerID).
		Order("playlist_videos.id ASC").
		Find(&videos).Error
	if err != nil {
		observability.RecordError(span, err)
		return nil, models.NewInternalError(err)
	}
	if err := attachVideoOwners(ctx, r.db, videos); err != nil {
		return nil, err
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return &models.PlaylistDetail{Playlist: *playlist, Videos: videos}, nil
}

func (r *playlistRepository) ListByOwner(ctx context.Context, ownerID uint) ([]models.Playlist, error) {
	playlists := []models.Playlist{}
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&playlists).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return playlists, nil
}

func (r *playlistRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Playlist{ID: id}).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Playlist", id)
	}
	return nil
}

func (r *playlistRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&models.PlaylistVideo{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Playlist{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *playlistRepository) AddVideo(ctx context.Context, playlistID, videoID uint) error {
	member := models.PlaylistVideo{PlaylistID: playlistID, VideoID: videoID}
	if err := r.db.WithContext(ctx).Create(&member).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewValidationError("Video already exists in playlist")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *playlistRepository) RemoveVideo(ctx context.Context, playlistID, videoID uint) error {
	err := r.db.WithContext(ctx).
		Where("playlist_id = ? AND video_id = ?", playlistID, videoID).
		Delete(&models.PlaylistVideo{}).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
