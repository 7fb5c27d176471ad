package service

import (
	"context"
	"log/slog"
	"math"
	"strings"
	"time"

	"vidtube/internal/events"
	"vidtube/internal/featureflags"
	"vidtube/internal/media"
	"vidtube/internal/middleware"
	"vidtube/internal/models"
	"vidtube/internal/repository"
)

type VideoService struct {
	videoRepo   repository.VideoRepository
	historyRepo repository.WatchHistoryRepository
	store       media.Store
	publisher   events.Publisher
	flags       *featureflags.Manager
	now         func() time.Time
}

type ListVideosInput struct {
	Query    string
	SortBy   string
	SortType string
	UserID   uint
	ViewerID uint
	Page     models.Page
}

type PublishVideoInput struct {
	OwnerID     uint
	Title       string
	Description string
	Visibility  string
	VideoFile   *FileUpload
	Thumbnail   *FileUpload
}

// UpdateVideoInput carries the fields to change. Nil fields are left untouched.
type UpdateVideoInput struct {
	UserID      uint
	VideoID     uint
	Title       *string
	Description *string
	Visibility  *string
	Thumbnail   *FileUpload
}

func NewVideoService(
	videoRepo repository.VideoRepository,
	historyRepo repository.WatchHistoryRepository,
	store media.Store,
	publisher events.Publisher,
	flags *featureflags.Manager,
) *VideoService {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &VideoService{
		videoRepo:   videoRepo,
		historyRepo: historyRepo,
		store:       store,
		publisher:   publisher,
		flags:       flags,
		now:         time.Now,
	}
}

func (s *VideoService) List(ctx context.Context, in ListVideosInput) (models.Paginated[models.Video], error) {
	if in.SortBy != "" && !repository.IsVideoSortField(in.SortBy) {
		return models.Paginated[models.Video]{}, models.NewValidationError(
			"Invalid sortBy option. Available options: createdAt, views, duration, title")
	}
	sortType := strings.ToLower(strings.TrimSpace(in.SortType))
	if sortType != "" && sortType != "asc" && sortType != "desc" {
		return models.Paginated[models.Video]{}, models.NewValidationError(
			"Invalid sortType option. Available options: asc, desc")
	}

	videos, total, err := s.videoRepo.List(ctx, repository.VideoFilter{
		Query:    in.Query,
		SortBy:   in.SortBy,
		SortType: sortType,
		OwnerID:  in.UserID,
		ViewerID: in.ViewerID,
		Page:     in.Page,
	})
	if err != nil {
		return models.Paginated[models.Video]{}, err
	}
	return models.NewPaginated(videos, total, in.Page), nil
}

// parseVisibility maps the textual visibility onto IsPublic. Empty means public.
func parseVisibility(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", models.VisibilityPublic:
		return true, nil
	case models.VisibilityPrivate:
		return false, nil
	default:
		return false, models.NewValidationError("Invalid visibility option. Available options: public, private")
	}
}

// Publish uploads the video and its thumbnail and stores the video. Uploads are removed
// again when a later step fails.
func (s *VideoService) Publish(ctx context.Context, in PublishVideoInput) (*models.Video, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, models.NewValidationError("Title is required")
	}
	isPublic, err := parseVisibility(in.Visibility)
	if err != nil {
		return nil, err
	}
	if in.VideoFile == nil || in.Thumbnail == nil {
		return nil, models.NewValidationError("Video and thumbnail are required")
	}
	if !in.VideoFile.hasPrefix("video/") {
		return nil, models.NewValidationError("Video file is not a video")
	}
	if !in.Thumbnail.hasPrefix("image/") {
		return nil, models.NewValidationError("Thumbnail file is not an image")
	}

	video := &models.Video{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		IsPublic:    isPublic,
		OwnerID:     in.OwnerID,
	}

	err = newSaga("publish_video").
		step("upload_video", func(ctx context.Context) error {
			asset, raw, err := uploadAsset(ctx, s.store, in.VideoFile, media.ResourceVideo)
			if err != nil {
				return models.NewInternalMessage("Video upload failed", err)
			}
			video.VideoFile = asset
			video.Duration = math.Round(raw.Duration*100) / 100
			return nil
		}, func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, video.VideoFile, media.ResourceVideo)
		}).
		step("upload_thumbnail", func(ctx context.Context) error {
			asset, _, err := uploadAsset(ctx, s.store, in.Thumbnail, media.ResourceImage)
			if err != nil {
				return models.NewInternalMessage("Thumbnail upload failed", err)
			}
			video.Thumbnail = asset
			return nil
		}, func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, video.Thumbnail, media.ResourceImage)
		}).
		step("create_video", func(ctx context.Context) error {
			return s.videoRepo.Create(ctx, video)
		}, nil).
		run(ctx)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.publisher, events.VideoPublished, events.VideoPayload{
		VideoID: video.ID,
		OwnerID: video.OwnerID,
		Title:   video.Title,
	})
	return s.videoRepo.GetByID(ctx, video.ID)
}

// Get returns a video the viewer may see, counts the view and records it in the viewer's history.
func (s *VideoService) Get(ctx context.Context, videoID, viewerID uint) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if !video.VisibleTo(viewerID) {
		return nil, models.NewNotFoundError("Video", videoID)
	}

	if err := s.videoRepo.IncrementViews(ctx, videoID); err != nil {
		return nil, err
	}
	video.Views++

	if s.flags.Enabled(featureflags.WatchHistory, viewerID) {
		if err := s.historyRepo.Record(ctx, viewerID, videoID, s.now()); err != nil {
			return nil, err
		}
	}
	return video, nil
}

func (s *VideoService) ownedVideo(ctx context.Context, videoID, userID uint, action string) (*models.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video.OwnerID != userID {
		return nil, models.NewForbiddenError("You are not allowed to " + action + " this video")
	}
	return video, nil
}

// Update changes the provided fields. A new thumbnail replaces the old one, which is removed
// from the media host once the video row points at the new upload.
func (s *VideoService) Update(ctx context.Context, in UpdateVideoInput) (*models.Video, error) {
	video, err := s.ownedVideo(ctx, in.VideoID, in.UserID, "update")
	if err != nil {
		return nil, err
	}

	fields := map[string]interface{}{}
	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, models.NewValidationError("Title cannot be empty")
		}
		fields["title"] = title
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if in.Visibility != nil {
		isPublic, err := parseVisibility(*in.Visibility)
		if err != nil {
			return nil, err
		}
		fields["is_public"] = isPublic
	}
	if len(fields) == 0 && in.Thumbnail == nil {
		return nil, models.NewValidationError("Provide at least one of title, description, visibility or thumbnail")
	}
	if in.Thumbnail != nil && !in.Thumbnail.hasPrefix("image/") {
		return nil, models.NewValidationError("Thumbnail file is not an image")
	}

	previous := video.Thumbnail
	var next models.MediaAsset
	sg := newSaga("update_video")
	if in.Thumbnail != nil {
		sg.step("upload_thumbnail", func(ctx context.Context) error {
			asset, _, err := uploadAsset(ctx, s.store, in.Thumbnail, media.ResourceImage)
			if err != nil {
				return models.NewInternalMessage("Thumbnail upload failed", err)
			}
			next = asset
			fields["thumbnail_url"] = asset.URL
			fields["thumbnail_storage_id"] = asset.StorageID
			return nil
		}, func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, next, media.ResourceImage)
		})
	}
	sg.step("update_video", func(ctx context.Context) error {
		return s.videoRepo.UpdateFields(ctx, in.VideoID, fields)
	}, nil)
	if in.Thumbnail != nil {
		sg.bestEffort("delete_previous_thumbnail", func(ctx context.Context) error {
			return deleteAsset(ctx, s.store, previous, media.ResourceImage)
		})
	}
	if err := sg.run(ctx); err != nil {
		return nil, err
	}

	return s.videoRepo.GetByID(ctx, in.VideoID)
}

// Delete removes the video's assets from the media host and then the video with its dependent rows.
func (s *VideoService) Delete(ctx context.Context, userID, videoID uint) error {
	video, err := s.ownedVideo(ctx, videoID, userID, "delete")
	if err != nil {
		return err
	}

	if err := deleteAsset(ctx, s.store, video.VideoFile, media.ResourceVideo); err != nil {
		return models.NewInternalMessage("Video file deletion failed", err)
	}
	if err := deleteAsset(ctx, s.store, video.Thumbnail, media.ResourceImage); err != nil {
		return models.NewInternalMessage("Thumbnail deletion failed", err)
	}
	if err := s.videoRepo.Delete(ctx, videoID); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "video deleted",
		slog.Uint64("video_id", uint64(videoID)), slog.Uint64("owner_id", uint64(userID)))
	events.Emit(ctx, s.publisher, events.VideoDeleted, events.VideoPayload{
		VideoID: videoID,
		OwnerID: video.OwnerID,
		Title:   video.Title,
	})
	return nil
}

// TogglePublish flips the visibility of an owned video.
func (s *VideoService) TogglePublish(ctx context.Context, userID, videoID uint) (*models.Video, error) {
	video, err := s.ownedVideo(ctx, videoID, userID, "update")
	if err != nil {
		return nil, err
	}
	if err := s.videoRepo.UpdateFields(ctx, videoID, map[string]interface{}{"is_public": !video.IsPublic}); err != nil {
		return nil, err
	}
	video.IsPublic = !video.IsPublic
	return video, nil
}
