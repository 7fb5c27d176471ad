package server

import (
	"errors"

	"vidtube/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the single place errors become HTTP responses. AppErrors carry their
// own status, fiber errors keep theirs, and everything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return models.RespondWithError(c, appErr.Status(), appErr)
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return models.RespondWithError(c, fiberErr.Code, &models.AppError{Message: fiberErr.Message})
	}

	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}
