package repository

import (
	"context"

	"vidtube/internal/models"

	"gorm.io/gorm"
)

// CommentRepository defines interface for comment operations
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByVideo returns one page of comments, oldest first, with owners attached.
	ListByVideo(ctx context.Context, videoID uint, page models.Page) ([]models.Comment, int64, error)
	UpdateContent(ctx context.Context, id uint, content string) error
	Delete(ctx context.Context, id uint) error
}

type commentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).First(&comment, id).Error; err != nil {
		return nil, notFoundOr(err, "Comment", id)
	}
	return &comment, nil
}

func (r *commentRepository) ListByVideo(ctx context.Context, videoID uint, page models.Page) ([]models.Comment, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Comment{}).Where("video_id = ?", videoID).Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}

	var comments []models.Comment
	err := r.db.WithContext(ctx).Where("video_id = ?", videoID).
		Order("created_at ASC").Order("id ASC").
		Limit(page.Limit).Offset(page.Offset()).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	if err := attachCommentOwners(ctx, r.db, comments); err != nil {
		return nil, 0, err
	}
	return comments, total, nil
}

func (r *commentRepository) UpdateContent(ctx context.Context, id uint, content string) error {
	res := r.db.WithContext(ctx).Model(&models.Comment{ID: id}).Update("content", content)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}

func (r *commentRepository) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
