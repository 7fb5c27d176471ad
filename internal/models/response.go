package models

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// ApiResponse is the success envelope returned by every endpoint.
type ApiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

// ErrorResponse is the failure envelope rendered by the central error handler.
type ErrorResponse struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

// NewApiResponse builds an envelope; success is derived from the status code.
func NewApiResponse(status int, data any, message string) ApiResponse {
	if message == "" {
		message = "Success"
	}
	return ApiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    status < fiber.StatusBadRequest,
	}
}

// Respond writes data wrapped in the success envelope.
func Respond(c *fiber.Ctx, status int, data any, message string) error {
	return c.Status(status).JSON(NewApiResponse(status, data, message))
}

// RespondWithError renders err in the error envelope using the given status.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	response := ErrorResponse{
		StatusCode: status,
		Message:    err.Error(),
		Success:    false,
		Errors:     []string{},
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		response.Message = appErr.Message
		if len(appErr.Details) > 0 {
			response.Errors = appErr.Details
		}
	}

	return c.Status(status).JSON(response)
}
