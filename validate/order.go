package validate

import (
	"fmt"

	"bakery_manager/constants"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
)

// CancelOrder accepts an empty body; email is only needed for guest orders.
func CancelOrder() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.CancelOrderInput](c, true)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func UpdateOrderStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.UpdateOrderStatusInput](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		if !input.Status.Valid() {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_ORDER_STATUS, fmt.Errorf("unknown status %q", input.Status))
		}
		c.Locals("input", input)
		return c.Next()
	}
}
