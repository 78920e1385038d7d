package validate

import (
	"errors"
	"strings"
	"time"

	"bakery_manager/constants"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
)

func Checkout() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CheckoutInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_REQUEST_BODY, err)
		}

		if len(input.Items) == 0 {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.CART_EMPTY, errors.New("no items"))
		}
		if input.FulfillmentType == model.FulfillmentDelivery && input.DeliveryAddress == nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DELIVERY_ADDRESS_NEEDED, errors.New("no address"))
		}
		if input.FulfillmentType == model.FulfillmentPickup {
			input.DeliveryAddress = nil
		}

		input.Contact.Email = model.NormalizeEmail(input.Contact.Email)
		input.Contact.Name = strings.TrimSpace(input.Contact.Name)
		input.DiscountCode = model.NormalizeDiscountCode(input.DiscountCode)

		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, Describe(err), err)
		}

		if input.TipAmount.IsNegative() {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_TIP, nil)
		}

		date, err := utils.ParseDate(input.DeliveryDate)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DELIVERY_DATE, err)
		}
		if date.Before(utils.NewCustomDate(time.Now()).Time) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DELIVERY_DATE, errors.New("date in the past"))
		}
		if _, err := utils.ParseWindowStart(input.DeliveryWindow); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DELIVERY_TIME, err)
		}

		c.Locals("input", input)
		return c.Next()
	}
}
