package rest

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/dmitrijs2005/memorylocks/internal/common"
	"github.com/dmitrijs2005/memorylocks/internal/logging"
)

// envelope wraps every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func respond(c *fiber.Ctx, status int, message string, data any) error {
	return c.Status(status).JSON(envelope{
		Success: status < fiber.StatusBadRequest,
		Message: message,
		Data:    data,
	})
}

func ok(c *fiber.Ctx, data any) error {
	return respond(c, fiber.StatusOK, "", data)
}

func created(c *fiber.Ctx, message string, data any) error {
	return respond(c, fiber.StatusCreated, message, data)
}

// publicMessage hides storage causes behind fallback.
func publicMessage(err error, fallback string) string {
	if errors.Is(err, common.ErrorStorage) {
		return fallback
	}
	return err.Error()
}

// statusOf maps an error to an HTTP status and the message shown to the
// client.
func statusOf(err error) (int, string) {
	var fe *fiber.Error

	switch {
	case errors.As(err, &fe):
		return fe.Code, fe.Message
	case errors.Is(err, common.ErrorInvalidArgument):
		return fiber.StatusBadRequest, publicMessage(err, "invalid argument")
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired):
		return fiber.StatusUnauthorized, "unauthorized"
	case errors.Is(err, common.ErrorRateLimited):
		return fiber.StatusTooManyRequests, "rate limit exceeded"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, publicMessage(err, "not found")
	case errors.Is(err, common.ErrorConflict):
		return fiber.StatusConflict, publicMessage(err, "resource already exists")
	case errors.Is(err, common.ErrorUnsupported):
		return fiber.StatusNotImplemented, "not supported by the configured storage provider"
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// errorHandler renders handler errors as envelopes. Server-side failures
// are logged with the request id; their cause never reaches the client.
func errorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, message := statusOf(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed",
				"request_id", requestID(c),
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"error", err,
			)
		}
		return respond(c, status, message, nil)
	}
}
