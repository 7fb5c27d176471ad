package service

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	videoRepo   repository.VideoRepository
	isAdmin     func(ctx context.Context, userID uint) (bool, error)
}

type CreateCommentInput struct {
	UserID  uint
	VideoID uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

type DeleteCommentInput struct {
	UserID    uint
	CommentID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	videoRepo repository.VideoRepository,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		videoRepo:   videoRepo,
		isAdmin:     isAdmin,
	}
}

// requireVideo loads the video and hides private videos from everyone but their owner.
func (s *CommentService) requireVideo(ctx context.Context, videoID, viewerID uint) error {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return err
	}
	if !video.VisibleTo(viewerID) {
		return models.NewNotFoundError("Video", videoID)
	}
	return nil
}

func normalizeComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return "", models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return content, nil
}

func (s *CommentService) ListComments(ctx context.Context, videoID, viewerID uint, page models.Page) (models.Paginated[models.Comment], error) {
	if err := s.requireVideo(ctx, videoID, viewerID); err != nil {
		return models.Paginated[models.Comment]{}, err
	}
	comments, total, err := s.commentRepo.ListByVideo(ctx, videoID, page)
	if err != nil {
		return models.Paginated[models.Comment]{}, err
	}
	return models.NewPaginated(comments, total, page), nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	content, err := normalizeComment(in.Content)
	if err != nil {
		return nil, err
	}
	if err := s.requireVideo(ctx, in.VideoID, in.UserID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: content,
		OwnerID: in.UserID,
		VideoID: in.VideoID,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	content, err := normalizeComment(in.Content)
	if err != nil {
		return nil, err
	}
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, comment, in.UserID, "update"); err != nil {
		return nil, err
	}

	if err := s.commentRepo.UpdateContent(ctx, comment.ID, content); err != nil {
		return nil, err
	}
	return s.commentRepo.GetByID(ctx, comment.ID)
}

func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, comment, in.UserID, "delete"); err != nil {
		return err
	}
	return s.commentRepo.Delete(ctx, comment.ID)
}

// authorize lets the comment's owner or an admin modify it.
func (s *CommentService) authorize(ctx context.Context, comment *models.Comment, userID uint, action string) error {
	if comment.OwnerID == userID {
		return nil
	}
	if s.isAdmin != nil {
		admin, err := s.isAdmin(ctx, userID)
		if err != nil {
			return err
		}
		if admin {
			return nil
		}
	}
	return models.NewForbiddenError("You are not allowed to " + action + " this comment")
}
