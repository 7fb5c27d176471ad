package server

import (
	"strconv"
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// ListVideos handles GET /api/v1/videos
func (s *Server) ListVideos(c *fiber.Ctx) error {
	page, err := parsePage(c)
	if err != nil {
		return err
	}

	var ownerID uint
	if raw := strings.TrimSpace(c.Query("userId")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			return models.NewValidationError("Invalid user ID")
		}
		ownerID = uint(id)
	}

	result, err := s.videoService.List(c.UserContext(), service.ListVideosInput{
		Query:    c.Query("query"),
		SortBy:   c.Query("sortBy"),
		SortType: c.Query("sortType"),
		UserID:   ownerID,
		ViewerID: currentUserID(c),
		Page:     page,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result, "Videos fetched successfully")
}

// PublishVideo handles POST /api/v1/videos (multipart)
func (s *Server) PublishVideo(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title" form:"title"`
		Description string `json:"description" form:"description"`
		Visibility  string `json:"visibility" form:"visibility"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}
	if req.Visibility == "" {
		req.Visibility = c.Query("visibility")
	}

	video, err := s.videoService.Publish(c.UserContext(), service.PublishVideoInput{
		OwnerID:     currentUserID(c),
		Title:       req.Title,
		Description: req.Description,
		Visibility:  req.Visibility,
		VideoFile:   stagedFile(c, "videoFile"),
		Thumbnail:   stagedFile(c, "thumbnail"),
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, video, "Video published successfully")
}

// GetVideo handles GET /api/v1/videos/:videoId
func (s *Server) GetVideo(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	video, err := s.videoService.Get(c.UserContext(), videoID, currentUserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, video, "Video fetched successfully")
}

// UpdateVideo handles PATCH /api/v1/videos/:videoId (JSON or multipart with an optional thumbnail)
func (s *Server) UpdateVideo(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	visibility := optionalFormValue(c, "visibility")
	if visibility == nil && c.Query("visibility") != "" {
		v := c.Query("visibility")
		visibility = &v
	}

	video, err := s.videoService.Update(c.UserContext(), service.UpdateVideoInput{
		UserID:      currentUserID(c),
		VideoID:     videoID,
		Title:       optionalFormValue(c, "title"),
		Description: optionalFormValue(c, "description"),
		Visibility:  visibility,
		Thumbnail:   stagedFile(c, "thumbnail"),
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, video, "Video updated successfully")
}

// DeleteVideo handles DELETE /api/v1/videos/:videoId
func (s *Server) DeleteVideo(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	if err := s.videoService.Delete(c.UserContext(), currentUserID(c), videoID); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Video deleted successfully")
}

// TogglePublish handles PATCH /api/v1/videos/toggle/publish/:videoId
func (s *Server) TogglePublish(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	video, err := s.videoService.TogglePublish(c.UserContext(), currentUserID(c), videoID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, video, "Video publish status toggled")
}
