package service

import (
	"context"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/repository"
)

const (
	maxPlaylistNameLen = 120

	PlaylistActionAdd    = "add"
	PlaylistActionRemove = "remove"
)

type PlaylistService struct {
	playlistRepo repository.PlaylistRepository
	videoRepo    repository.VideoRepository
}

type CreatePlaylistInput struct {
	OwnerID     uint
	Name        string
	Description string
}

// UpdatePlaylistInput carries the fields to change. Nil fields are left untouched.
type UpdatePlaylistInput struct {
	UserID      uint
	PlaylistID  uint
	Name        *string
	Description *string
}

type ChangePlaylistVideoInput struct {
	UserID     uint
	PlaylistID uint
	VideoID    uint
	Action     string
}

func NewPlaylistService(playlistRepo repository.PlaylistRepository, videoRepo repository.VideoRepository) *PlaylistService {
	return &PlaylistService{playlistRepo: playlistRepo, videoRepo: videoRepo}
}

func validPlaylistName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", models.NewValidationError("Playlist name is required")
	}
	if len(name) > maxPlaylistNameLen {
		return "", models.NewValidationError("Playlist name too long (max 120 characters)")
	}
	return name, nil
}

func (s *PlaylistService) Create(ctx context.Context, in CreatePlaylistInput) (*models.Playlist, error) {
	name, err := validPlaylistName(in.Name)
	if err != nil {
		return nil, err
	}
	playlist := &models.Playlist{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		OwnerID:     in.OwnerID,
	}
	if err := s.playlistRepo.Create(ctx, playlist); err != nil {
		return nil, models.NewInternalMessage("Failed to create playlist", err)
	}
	return playlist, nil
}

func (s *PlaylistService) Get(ctx context.Context, playlistID, viewerID uint) (*models.PlaylistDetail, error) {
	return s.playlistRepo.GetDetail(ctx, playlistID, viewerID)
}

func (s *PlaylistService) ListByUser(ctx context.Context, userID uint) ([]models.Playlist, error) {
	return s.playlistRepo.ListByOwner(ctx, userID)
}

func (s *PlaylistService) owned(ctx context.Context, playlistID, userID uint) (*models.Playlist, error) {
	playlist, err := s.playlistRepo.GetByID(ctx, playlistID)
	if err != nil {
		return nil, err
	}
	if playlist.OwnerID != userID {
		return nil, models.NewForbiddenError("You are not allowed to modify this playlist")
	}
	return playlist, nil
}

func (s *PlaylistService) Update(ctx context.Context, in UpdatePlaylistInput) (*models.PlaylistDetail, error) {
	fields := map[string]interface{}{}
	if in.Name != nil {
		name, err := validPlaylistName(*in.Name)
		if err != nil {
			return nil, err
		}
		fields["name"] = name
	}
	if in.Description != nil {
		fields["description"] = strings.TrimSpace(*in.Description)
	}
	if len(fields) == 0 {
		return nil, models.NewValidationError("Provide a name or description to update")
	}

	if _, err := s.owned(ctx, in.PlaylistID, in.UserID); err != nil {
		return nil, err
	}
	if err := s.playlistRepo.UpdateFields(ctx, in.PlaylistID, fields); err != nil {
		return nil, err
	}
	return s.playlistRepo.GetDetail(ctx, in.PlaylistID, in.UserID)
}

func (s *PlaylistService) Delete(ctx context.Context, userID, playlistID uint) error {
	if _, err := s.owned(ctx, playlistID, userID); err != nil {
		return err
	}
	return s.playlistRepo.Delete(ctx, playlistID)
}

// ChangeVideo adds a video to or removes it from a playlist. Adding an existing member is
// rejected; removing a non-member succeeds without changes.
func (s *PlaylistService) ChangeVideo(ctx context.Context, in ChangePlaylistVideoInput) (*models.PlaylistDetail, error) {
	action := strings.ToLower(strings.TrimSpace(in.Action))
	if action != PlaylistActionAdd && action != PlaylistActionRemove {
		return nil, models.NewValidationError("Invalid action. Available options: add, remove")
	}
	if _, err := s.owned(ctx, in.PlaylistID, in.UserID); err != nil {
		return nil, err
	}

	switch action {
	case PlaylistActionAdd:
		video, err := s.videoRepo.GetByID(ctx, in.VideoID)
		if err != nil {
			return nil, err
		}
		if !video.VisibleTo(in.UserID) {
			return nil, models.NewNotFoundError("Video", in.VideoID)
		}
		if err := s.playlistRepo.AddVideo(ctx, in.PlaylistID, in.VideoID); err != nil {
			return nil, err
		}
	case PlaylistActionRemove:
		if err := s.playlistRepo.RemoveVideo(ctx, in.PlaylistID, in.VideoID); err != nil {
			return nil, err
		}
	}
	return s.playlistRepo.GetDetail(ctx, in.PlaylistID, in.UserID)
}
