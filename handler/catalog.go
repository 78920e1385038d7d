package handler

import (
	"errors"
	"fmt"
	"strings"

	"bakery_manager/constants"
	"bakery_manager/database"
	"bakery_manager/helper"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
)

func (h *Handler) ListProducts(c *fiber.Ctx) error {
	products, err := h.Store.ListActiveProducts(c.UserContext())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, products)
}

type timeSlotView struct {
	model.TimeSlot
	Remaining int `json:"remaining"`
}

// ListTimeSlots returns the open slots for ?date=YYYY-MM-DD, today when omitted.
func (h *Handler) ListTimeSlots(c *fiber.Ctx) error {
	date := utils.NewCustomDate(h.now())
	if raw := c.Query("date"); raw != "" {
		parsed, err := utils.ParseDate(raw)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DELIVERY_DATE, err)
		}
		date = parsed
	}

	slots, err := h.Store.ListTimeSlots(c.UserContext(), date)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	views := make([]timeSlotView, 0, len(slots))
	for _, s := range slots {
		views = append(views, timeSlotView{TimeSlot: s, Remaining: s.Remaining()})
	}
	return utils.SuccessResponse(c, fiber.StatusOK, views)
}

func (h *Handler) LookupDeliveryZone(c *fiber.Ctx) error {
	zip := strings.TrimSpace(c.Query("zip"))
	if zip == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Missing required field: zip", nil)
	}
	zones, err := h.Store.ActiveDeliveryZones(c.UserContext())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	zone := model.MatchDeliveryZone(zones, zip)
	if zone == nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ZONE_NOT_FOUND, nil)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, zone)
}

// PreviewDiscountCode reports what a code would take off ?subtotal= without redeeming it.
func (h *Handler) PreviewDiscountCode(c *fiber.Ctx) error {
	subtotal := decimal.Zero
	if raw := c.Query("subtotal"); raw != "" {
		parsed, err := decimal.NewFromString(raw)
		if err != nil || parsed.IsNegative() {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid value for field: subtotal", err)
		}
		subtotal = parsed
	}

	code, err := h.Store.FindDiscountCode(c.UserContext(), c.Params("code"))
	if errors.Is(err, database.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.DISCOUNT_INVALID, nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !code.Usable(h.now()) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DISCOUNT_INVALID, nil)
	}
	if !code.MeetsMinimum(subtotal) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf(constants.DISCOUNT_MIN_ORDER, code.MinOrderAmount.Decimal.StringFixed(2)), nil)
	}

	discount, freeDelivery := code.Apply(subtotal)
	return utils.SuccessResponse(c, fiber.StatusOK, model.DiscountPreview{
		Code:         code.Code,
		Type:         code.Type,
		Discount:     discount,
		FreeDelivery: freeDelivery,
	})
}

func (h *Handler) GetSettings(c *fiber.Ctx) error {
	business, err := h.Settings.Business(c.UserContext())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, business)
}

func (h *Handler) UpdateSettings(c *fiber.Ctx) error {
	input := c.Locals("input").(model.BusinessSettings)
	if input.Currency == "" {
		input.Currency = h.Currency
	}
	input.Currency = strings.ToLower(input.Currency)

	if err := h.Settings.UpdateBusiness(c.UserContext(), input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, input)
}

func (h *Handler) AdminCreateProduct(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateProductInput)
	ctx := c.UserContext()

	product := new(model.Product)
	if err := copier.Copy(product, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	product.IsActive = true
	for i := range product.Variants {
		product.Variants[i].IsAvailable = true
	}

	slug, err := helper.GenerateUniqueProductSlug(ctx, h.Store, input.Name)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	product.Slug = slug

	if err := h.Store.CreateProduct(ctx, product); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, product)
}

func (h *Handler) AdminCreateTimeSlot(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateTimeSlotInput)

	date, err := utils.ParseDate(input.Date)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_DELIVERY_DATE, err)
	}
	slot := &model.TimeSlot{
		Date:        date,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Label:       input.Label,
		MaxOrders:   input.MaxOrders,
		IsAvailable: true,
	}
	if err := h.Store.CreateTimeSlot(c.UserContext(), slot); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.TIME_SLOT_TAKEN, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, slot)
}

func (h *Handler) AdminCreateDeliveryZone(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateDeliveryZoneInput)

	zone := new(model.DeliveryZone)
	if err := copier.Copy(zone, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	zone.ZipCodes = nonEmpty(input.ZipCodes)
	zone.IsActive = true

	if err := h.Store.CreateDeliveryZone(c.UserContext(), zone); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, zone)
}

func (h *Handler) AdminCreateDiscountCode(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateDiscountCodeInput)

	code := new(model.DiscountCode)
	if err := copier.Copy(code, &input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	code.IsActive = true

	if err := h.Store.CreateDiscountCode(c.UserContext(), code); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			return utils.ErrorResponse(c, fiber.StatusConflict, constants.DISCOUNT_CODE_TAKEN, nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, code)
}
