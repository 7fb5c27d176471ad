package repository

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/observability"

	"gorm.io/gorm"
)

// VideoFilter narrows and orders a video listing.
type VideoFilter struct {
	Query    string
	SortBy   string
	SortType string
	// OwnerID limits the listing to one channel when non-zero.
	OwnerID uint
	// ViewerID is the requester; their own private videos are included when OwnerID == ViewerID.
	ViewerID uint
	Page     models.Page
}

var videoSortColumns = map[string]string{
	"createdAt": "created_at",
	"views":     "views",
	"duration":  "duration",
	"title":     "title",
}

// IsVideoSortField reports whether field is an accepted sortBy value.
func IsVideoSortField(field string) bool {
	_, ok := videoSortColumns[field]
	return ok
}

// VideoRepository defines persistence operations for videos.
type VideoRepository interface {
	Create(ctx context.Context, video *models.Video) error
	// GetByID returns the video with its owner attached.
	GetByID(ctx context.Context, id uint) (*models.Video, error)
	List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error)
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	IncrementViews(ctx context.Context, id uint) error
	// Delete removes the video together with its comments, playlist memberships and history entries.
	Delete(ctx context.Context, id uint) error
}

type videoRepository struct {
	db *gorm.DB
}

// NewVideoRepository returns a new VideoRepository implementation.
func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepository{db: db}
}

func (r *videoRepository) Create(ctx context.Context, video *models.Video) error {
	if err := r.db.WithContext(ctx).Create(video).Error; err != nil {
		return models.NewInternalMessage("Video creation failed", err)
	}
	return nil
}

func (r *videoRepository) GetByID(ctx context.Context, id uint) (*models.Video, error) {
	var video models.Video
	if err := r.db.WithContext(ctx).First(&video, id).Error; err != nil {
		return nil, notFoundOr(err, "Video", id)
	}
	videos := []models.Video{video}
	if err := attachVideoOwners(ctx, r.db, videos); err != nil {
		return nil, err
	}
	return &videos[0], nil
}

func (r *videoRepository) List(ctx context.Context, filter VideoFilter) ([]models.Video, int64, error) {
	ctx, span := observability.TraceRepositoryMethod(ctx, "List", "videos")
	defer span.End()
	defer observability.TrackQuery("list", "videos")()

	q := r.db.WithContext(ctx).Model(&models.Video{})
	switch {
	case filter.OwnerID != 0 && filter.OwnerID == filter.ViewerID:
		q = q.Where("owner_id = ?", filter.OwnerID)
	case filter.OwnerID != 0:
		q = q.Where("owner_id = ? AND is_public = ?", filter.OwnerID, true)
	default:
		q = q.Where("is_public = ?", true)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + term + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		observability.RecordError(span, err)
		return nil, 0, models.NewInternalError(err)
	}

	column, ok := videoSortColumns[filter.SortBy]
	if !ok {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(filter.SortType, "asc") {
		direction = "ASC"
	}

	var videos []models.Video
	err := q.Order(column + " " + direction).Order("id " + direction).
		Limit(filter.Page.Limit).Offset(filter.Page.Offset()).
		Find(&videos).Error
	if err != nil {
		observability.RecordError(span, err)
		return nil, 0, models.NewInternalError(err)
	}
	if err := attachVideoOwners(ctx, r.db, videos); err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

func (r *videoRepository) UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&models.Video{ID: id}).Updates(fields)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}

func (r *videoRepository) IncrementViews(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Video{}).Where("id = ?", id).
		UpdateColumn("views", gorm.Expr("views + ?", 1)).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *videoRepository) Delete(ctx context.Context, id uint) error {
	ctx, span := observability.TraceRepositoryMethod(ctx, "Delete", "videos")
	defer span.End()

	var missing bool
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("video_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&models.PlaylistVideo{}).Error; err != nil {
			return err
		}
		if err := tx.Where("video_id = ?", id).Delete(&models.WatchHistoryEntry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Video{}, id)
		if res.Error != nil {
			return res.Error
		}
		missing = res.RowsAffected == 0
		return nil
	})
	if err != nil {
		observability.RecordError(span, err)
		return models.NewInternalError(err)
	}
	if missing {
		return models.NewNotFoundError("Video", id)
	}
	return nil
}
