package server

import (
	"vidtube/internal/models"
	"vidtube/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content" form:"content"`
}

// GetComments handles GET /api/v1/comments/:videoId?page=&limit=
func (s *Server) GetComments(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}
	page, err := parsePage(c)
	if err != nil {
		return err
	}

	result, err := s.commentService.ListComments(c.UserContext(), videoID, currentUserID(c), page)
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, result, "Comments fetched successfully")
}

// CreateComment handles POST /api/v1/comments/:videoId
func (s *Server) CreateComment(c *fiber.Ctx) error {
	videoID, err := parseID(c, "videoId")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	comment, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  currentUserID(c),
		VideoID: videoID,
		Content: req.Content,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusCreated, comment, "Comment added successfully")
}

// UpdateComment handles PATCH /api/v1/comments/c/:commentId
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.NewValidationError("Invalid request body")
	}

	comment, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, comment, "Comment updated successfully")
}

// DeleteComment handles DELETE /api/v1/comments/c/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := parseID(c, "commentId")
	if err != nil {
		return err
	}

	err = s.commentService.DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	})
	if err != nil {
		return err
	}
	return respond(c, fiber.StatusOK, fiber.Map{}, "Comment deleted successfully")
}
