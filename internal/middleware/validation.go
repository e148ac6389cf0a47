package middleware

import (
	"flashzen/internal/validation"

	"github.com/gofiber/fiber/v2"
)

// ValidationMiddleware provides request validation middleware
type ValidationMiddleware struct {
	validator *validation.Validator
}

// NewValidationMiddleware creates a new validation middleware instance
func NewValidationMiddleware() *ValidationMiddleware {
	return &ValidationMiddleware{
		validator: validation.NewValidator(),
	}
}

// ValidateConfirmationID validates the :id path parameter of the
// confirmation routes.
func (vm *ValidationMiddleware) ValidateConfirmationID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Params("id")
		if errs := vm.validator.ValidateConfirmationID(id); len(errs) > 0 {
			return errs // handled by ErrorHandler
		}
		c.Locals("validated_confirmation_id", id)
		return c.Next()
	}
}
