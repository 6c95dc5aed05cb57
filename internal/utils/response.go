package utils

import (
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse sends a success JSON response
func SuccessResponse(c *fiber.Ctx, data fiber.Map, message string, code ...int) error {
	statusCode := fiber.StatusOK
	if len(code) > 0 {
		statusCode = code[0]
	}

	body := fiber.Map{
		"success": true,
		"message": message,
	}
	for k, v := range data {
		body[k] = v
	}

	return c.Status(statusCode).JSON(body)
}

// APIErrorResponse sends a structured error response carrying the
// machine-readable code plus any extra discriminator fields (e.g. the
// "conflict" flag on version conflicts, "status" on device polling).
func APIErrorResponse(c *fiber.Ctx, apiErr *APIError, extra ...fiber.Map) error {
	body := fiber.Map{
		"success": false,
		"error":   apiErr.Message,
		"code":    apiErr.Code,
	}
	for _, m := range extra {
		for k, v := range m {
			body[k] = v
		}
	}

	return c.Status(apiErr.Status).JSON(body)
}
