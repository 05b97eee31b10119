package serverutils

import (
	"errors"

	"ai-tutor-be/internal/pkg/logger"

	"github.com/gofiber/fiber/v2"
)

// HttpError is a service-level error carrying the status it should map to.
// The message is user-facing: short, human-readable, never store internals.
type HttpError struct {
	Code    int
	Message string
	Err     error
}

func (e *HttpError) Error() string {
	return e.Message
}

func (e *HttpError) Unwrap() error {
	return e.Err
}

func NewHttpError(code int, message string) *HttpError {
	return &HttpError{Code: code, Message: message}
}

// WrapHttpError attaches an internal cause that only reaches the logs.
func WrapHttpError(code int, message string, err error) *HttpError {
	return &HttpError{Code: code, Message: message, Err: err}
}

// ErrorHandler is the app-wide fiber error handler. Typed errors map to
// their status and message; anything else becomes a plain 500 with details
// kept server-side.
func ErrorHandler(log logger.ILogger) fiber.ErrorHandler {
	return func(ctx *fiber.Ctx, err error) error {
		var httpErr *HttpError
		if errors.As(err, &httpErr) {
			if httpErr.Code >= fiber.StatusInternalServerError {
				log.Error("Http", "Request failed", map[string]interface{}{
					"path":  ctx.Path(),
					"error": err.Error(),
					"cause": causeString(httpErr),
				})
			}
			return ErrorResponse(ctx, httpErr.Code, httpErr.Message)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ErrorResponse(ctx, fiberErr.Code, fiberErr.Message)
		}

		log.Error("Http", "Unhandled error", map[string]interface{}{
			"path":  ctx.Path(),
			"error": err.Error(),
		})
		return ErrorResponse(ctx, fiber.StatusInternalServerError, "Internal server error")
	}
}

func causeString(e *HttpError) string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}
