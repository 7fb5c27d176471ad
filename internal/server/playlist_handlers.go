package server

import (
	"strings"

	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreatePlaylist handles POST /api/v1/playlists
func (s *Server) CreatePlaylist(c *fiber.Ctx) error {
	var req struct {
		Name        string `json:"name" form:"name"`
		Description string `json:"description" form:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	playlist, err := s.playlistService.Create(c.UserContext(), service.CreatePlaylistInput{
		OwnerID:     currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, playlist, "Playlist created successfully")
}

// GetPlaylist handles GET /api/v1/playlists/:playlistId
func (s *Server) GetPlaylist(c *fiber.Ctx) error {
	playlistID, err := parseID(c, "playlistId")
	if err != nil {
		return err
	}

	playlist, err := s.playlistService.Get(c.UserContext(), playlistID, currentUserID(c))
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlist, "Playlist fetched successfully")
}

// GetUserPlaylists handles GET /api/v1/playlists/user/:userId
func (s *Server) GetUserPlaylists(c *fiber.Ctx) error {
	userID, err := parseID(c, "userId")
	if err != nil {
		return err
	}

	playlists, err := s.playlistService.ListByUser(c.UserContext(), userID)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlists, "Playlists fetched successfully")
}

// UpdatePlaylist handles PATCH /api/v1/playlists/:playlistId
func (s *Server) UpdatePlaylist(c *fiber.Ctx) error {
	playlistID, err := parseID(c, "playlistId")
	if err != nil {
		return err
	}

	var req struct {
		Name        *string `json:"name" form:"name"`
		Description *string `json:"description" form:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	playlist, err := s.playlistService.Update(c.UserContext(), service.UpdatePlaylistInput{
		UserID:      currentUserID(c),
		PlaylistID:  playlistID,
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, playlist, "Playlist updated successfully")
}

// DeletePlaylist handles DELETE /api/v1/playlists/:playlistId
func (s *Server) DeletePlaylist(c *fiber.Ctx) error {
	playlistID, err := parseID(c, "playlistId")
	if err != nil {
		return err
	}

	if err := s.playlistService.Delete(c.UserContext(), currentUserID(c), playlistID); err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Playlist deleted successfully")
}

// ChangePlaylistVideo handles PATCH /api/v1/playlists/:playlistId/videos/:videoId?action=add|remove
func (s *Server) ChangePlaylistVideo(c *fiber.Ctx) error {
	playlistID, err := parseID(c, "playlistId")
	if err != nil {
		return err
	}
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	action := strings.ToLower(strings.TrimSpace(c.Query("action")))
	playlist, err := s.playlistService.ChangeVideo(c.UserContext(), service.ChangePlaylistVideoInput{
		UserID:     currentUserID(c),
		PlaylistID: playlistID,
		VideoID:    videoID,
		Action:     action,
	})
	if err != nil {
		return err
	}

	message := "Video added to playlist"
	if action == service.PlaylistActionRemove {
		message = "Video removed from playlist"
	}
	return respond(c, fiber.StatusOK, playlist, message)
}
