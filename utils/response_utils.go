package utils

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// RespondWithError sends a JSON error response with a machine-readable kind
// and a human-readable message.
func RespondWithError(c *fiber.Ctx, statusCode int, kind, message string) error {
	return c.Status(statusCode).JSON(fiber.Map{
		"error":   kind,
		"message": message,
	})
}

// FormatValidationErrors formats validation errors from validator/v10.
func FormatValidationErrors(err error) []string {
	var errors []string
	if err != nil {
		for _, fieldErr := range err.(validator.ValidationErrors) {
			element := fmt.Sprintf("Field '%s' failed on the '%s' tag", fieldErr.Field(), fieldErr.Tag())
			if fieldErr.Param() != "" {
				element = fmt.Sprintf("%s (value: %s)", element, fieldErr.Param())
			}
			errors = append(errors, element)
		}
	}
	return errors
}
