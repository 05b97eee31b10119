package serverutils

import "github.com/gofiber/fiber/v2"

// SuccessResponse writes the standard envelope every endpoint uses.
func SuccessResponse(ctx *fiber.Ctx, code int, message string, data interface{}) error {
	return ctx.Status(code).JSON(fiber.Map{
		"success": true,
		"code":    code,
		"message": message,
		"data":    data,
	})
}

// ErrorResponse writes the failure envelope. Used by the central error
// handler; controllers normally just return an error.
func ErrorResponse(ctx *fiber.Ctx, code int, message string) error {
	return ctx.Status(code).JSON(fiber.Map{
		"success": false,
		"code":    code,
		"message": message,
	})
}
