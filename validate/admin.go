package validate

import (
	"errors"

	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

var maxPercent = decimal.NewFromInt(100)

func CreateProduct() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.CreateProductInput](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		for _, v := range input.Variants {
			if !v.Price.IsPositive() {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Variant price must be greater than 0", errors.New(v.Name))
			}
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func CreateTimeSlot() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.CreateTimeSlotInput](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		// HH:MM compares correctly as a string
		if input.EndTime <= input.StartTime {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "End time must be after start time", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func CreateDeliveryZone() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.CreateDeliveryZoneInput](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		if input.MinimumOrder.IsNegative() || input.DeliveryFee.IsNegative() ||
			(input.FreeDeliveryThreshold.Valid && input.FreeDeliveryThreshold.Decimal.IsNegative()) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Amounts cannot be negative", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func CreateDiscountCode() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.CreateDiscountCodeInput](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		switch input.Type {
		case model.DiscountPercentage:
			if !input.Value.IsPositive() || input.Value.GreaterThan(maxPercent) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Percentage must be between 0 and 100", nil)
			}
		case model.DiscountFixed:
			if !input.Value.IsPositive() {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Discount value must be greater than 0", nil)
			}
		}
		if input.ValidFrom != nil && input.ValidUntil != nil && input.ValidUntil.Before(*input.ValidFrom) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "validUntil must be after validFrom", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func UpdateSettings() fiber.Handler {
	return func(c *fiber.Ctx) error {
		input, msg, err := parseBody[model.BusinessSettings](c, false)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, err)
		}
		if input.DefaultDeliveryFee.IsNegative() {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Amounts cannot be negative", nil)
		}
		c.Locals("input", input)
		return c.Next()
	}
}
