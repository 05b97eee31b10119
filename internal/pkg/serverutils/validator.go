package serverutils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest parses the JSON body into req and runs its validate tags.
// Failures come back as a 400 HttpError listing the offending fields.
func ValidateRequest(ctx *fiber.Ctx, req interface{}) error {
	if err := ctx.BodyParser(req); err != nil {
		return NewHttpError(fiber.StatusBadRequest, "Invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return NewHttpError(fiber.StatusBadRequest,
				"Validation failed: "+strings.Join(fields, ", "))
		}
		return NewHttpError(fiber.StatusBadRequest, "Validation failed")
	}

	return nil
}
