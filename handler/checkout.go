package handler

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"bakery_manager/constants"
	"bakery_manager/database"
	"bakery_manager/helper"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/jinzhu/copier"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// GenerateOrderNumber returns a human readable number like HS-2026-3FA9C1.
func GenerateOrderNumber(year int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("HS-%d-%s", year, strings.ToUpper(raw[:6]))
}

func (h *Handler) Checkout(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CheckoutInput)
	ctx := c.UserContext()
	now := h.now()
	claim, isCustomer := helper.GetInfoCustomerFromToken(c)

	// Availability is checked against current catalog rows, never the cart snapshot.
	quantities := make(map[uuid.UUID]int)
	var ids []uuid.UUID
	for _, item := range input.Items {
		if _, ok := quantities[item.VariantID]; !ok {
			ids = append(ids, item.VariantID)
		}
		quantities[item.VariantID] += item.Quantity
	}

	variants, err := h.Store.GetVariants(ctx, ids)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
	}
	byID := make(map[uuid.UUID]model.ProductVariant, len(variants))
	for _, v := range variants {
		byID[v.ID] = v
	}

	var unavailable []string
	for _, item := range input.Items {
		v, ok := byID[item.VariantID]
		if ok && v.Sellable(quantities[item.VariantID]) {
			continue
		}
		name := item.Name
		if ok && v.Product != nil {
			name = v.Product.Name
		}
		if name == "" {
			name = item.VariantID.String()
		}
		if !slices.Contains(unavailable, name) {
			unavailable = append(unavailable, name)
		}
	}
	if len(unavailable) > 0 {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			fmt.Sprintf(constants.ITEMS_UNAVAILABLE, strings.Join(unavailable, ", ")), nil)
	}

	items := make([]model.OrderItem, 0, len(input.Items))
	subtotal := decimal.Zero
	for _, in := range input.Items {
		v := byID[in.VariantID]
		lineTotal := v.Price.Mul(decimal.NewFromInt(int64(in.Quantity)))
		subtotal = subtotal.Add(lineTotal)
		item := model.OrderItem{
			VariantID:   v.ID,
			VariantName: v.Name,
			Quantity:    in.Quantity,
			UnitPrice:   v.Price,
			TotalPrice:  lineTotal,
		}
		if v.Product != nil {
			item.ProductName = v.Product.Name
		}
		item.SpecialInstructions = utils.StringPtr(strings.TrimSpace(in.SpecialInstructions))
		items = append(items, item)
	}

	deliveryFee := decimal.Zero
	var zoneID *uuid.UUID
	if input.FulfillmentType == model.FulfillmentDelivery {
		zones, err := h.Store.ActiveDeliveryZones(ctx)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
		}
		if zone := model.MatchDeliveryZone(zones, input.DeliveryAddress.ZipCode); zone != nil {
			if subtotal.LessThan(zone.MinimumOrder) {
				return utils.ErrorResponse(c, fiber.StatusBadRequest,
					fmt.Sprintf(constants.ZONE_MIN_ORDER, zone.MinimumOrder.StringFixed(2)), nil)
			}
			deliveryFee = zone.FeeFor(subtotal)
			zoneID = &zone.ID
		} else {
			business, err := h.Settings.Business(ctx)
			if err != nil {
				h.Log.Warn("business settings unavailable, using defaults", "err", err)
				business = model.DefaultBusinessSettings()
			}
			deliveryFee = business.DefaultDeliveryFee
			h.Log.Info("no delivery zone for zip", "zip", input.DeliveryAddress.ZipCode)
		}
	}

	discount := decimal.Zero
	var discountCode *string
	if input.DiscountCode != "" {
		code, err := h.Store.FindDiscountCode(ctx, input.DiscountCode)
		if errors.Is(err, database.ErrNotFound) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DISCOUNT_INVALID, nil)
		}
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
		}
		if !code.Usable(now) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DISCOUNT_INVALID, nil)
		}
		if !code.MeetsMinimum(subtotal) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest,
				fmt.Sprintf(constants.DISCOUNT_MIN_ORDER, code.MinOrderAmount.Decimal.StringFixed(2)), nil)
		}
		var freeDelivery bool
		discount, freeDelivery = code.Apply(subtotal)
		if freeDelivery {
			deliveryFee = decimal.Zero
		}
		discountCode = &code.Code
	}

	totals := model.ComputeTotals(subtotal, discount, deliveryFee, input.TipAmount)

	date, _ := utils.ParseDate(input.DeliveryDate)
	start, _ := utils.ParseWindowStart(input.DeliveryWindow)
	var slotID *uuid.UUID
	slot, err := h.Store.FindTimeSlot(ctx, date, start)
	switch {
	case errors.Is(err, database.ErrNotFound):
		h.Log.Warn("no time slot for requested window, order not reserved",
			"date", input.DeliveryDate,
			"window", input.DeliveryWindow,
		)
	case err != nil:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
	case slot.IsFull():
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.TIME_SLOT_FULL, nil)
	default:
		reserved, err := h.Store.ReserveTimeSlot(ctx, slot.ID)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
		}
		if !reserved {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.TIME_SLOT_FULL, nil)
		}
		slotID = &slot.ID
	}

	order := &model.Order{
		OrderNumber:     GenerateOrderNumber(now.Year()),
		ContactName:     input.Contact.Name,
		ContactPhone:    input.Contact.Phone,
		Status:          model.StatusReceived,
		PaymentStatus:   model.PaymentPending,
		FulfillmentType: input.FulfillmentType,
		Subtotal:        totals.Subtotal,
		DeliveryFee:     totals.DeliveryFee,
		TaxAmount:       totals.TaxAmount,
		DiscountAmount:  totals.DiscountAmount,
		TipAmount:       totals.TipAmount,
		Total:           totals.Total,
		DiscountCode:    discountCode,
		TimeSlotID:      slotID,
		DeliveryZoneID:  zoneID,
		DeliveryDate:    date,
		DeliveryWindow:  input.DeliveryWindow,
		Notes:           utils.StringPtr(strings.TrimSpace(input.Notes)),
		Items:           items,
	}
	if isCustomer {
		order.CustomerID = &claim.CustomerId
	} else {
		order.GuestEmail = &input.Contact.Email
		order.GuestPhone = &input.Contact.Phone
	}
	if input.DeliveryAddress != nil {
		var address model.Address
		if err := copier.Copy(&address, input.DeliveryAddress); err != nil {
			h.releaseReservation(c, slotID)
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
		}
		order.DeliveryAddress = datatypes.NewJSONType(&address)
	}

	if err := h.Store.CreateOrder(ctx, order); err != nil {
		h.releaseReservation(c, slotID)
		if errors.Is(err, database.ErrOutOfStock) {
			return utils.ErrorResponse(c, fiber.StatusBadRequest,
				fmt.Sprintf(constants.ITEMS_UNAVAILABLE, strings.Join(trackedNames(items, byID), ", ")), nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
	}

	session, err := h.Payments.CreateCheckoutSession(ctx, h.sessionRequest(order, input.Contact.Email))
	if err != nil {
		h.discardOrder(c, order)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.PAYMENT_SESSION_FAILED, err)
	}
	if err := h.Store.SetOrderSession(ctx, order.ID, session.ID); err != nil {
		h.discardOrder(c, order)
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.CHECKOUT_FAILED, err)
	}

	h.Effects.Run(ctx, model.HistoryTask(order.ID, model.StatusReceived, "Order placed", nil))
	h.Log.Info("order placed",
		"order_id", order.ID,
		"order_number", order.OrderNumber,
		"total", order.Total.StringFixed(2),
		"guest", order.IsGuest(),
	)

	return utils.SuccessResponse(c, fiber.StatusOK, model.CheckoutResult{
		URL:         session.URL,
		SessionID:   session.ID,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Total:       order.Total,
	})
}

func (h *Handler) sessionRequest(order *model.Order, email string) model.CheckoutSessionRequest {
	req := model.CheckoutSessionRequest{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		CustomerEmail: email,
		Currency:      h.Currency,
		Discount:      order.DiscountAmount,
		SuccessURL:    h.AppURL + "/order-confirmation/" + order.ID.String() + "?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     h.AppURL + "/checkout?cancelled=true&order_id=" + order.ID.String(),
	}
	for _, item := range order.Items {
		req.LineItems = append(req.LineItems, model.CheckoutLineItem{
			Name:      item.DisplayName(),
			UnitPrice: item.UnitPrice,
			Quantity:  int64(item.Quantity),
		})
	}
	for _, extra := range []struct {
		name   string
		amount decimal.Decimal
	}{
		{"Delivery fee", order.DeliveryFee},
		{"Tax", order.TaxAmount},
		{"Tip", order.TipAmount},
	} {
		if extra.amount.IsPositive() {
			req.LineItems = append(req.LineItems, model.CheckoutLineItem{Name: extra.name, UnitPrice: extra.amount, Quantity: 1})
		}
	}
	return req
}

// releaseReservation gives back a slot claimed for an order that was never stored.
func (h *Handler) releaseReservation(c *fiber.Ctx, slotID *uuid.UUID) {
	if slotID == nil {
		return
	}
	if err := h.Store.ReleaseTimeSlot(c.UserContext(), *slotID); err != nil {
		h.Log.Error("release reserved time slot", "slot_id", *slotID, "err", err)
	}
}

// discardOrder is the compensation when no payment session could be attached.
func (h *Handler) discardOrder(c *fiber.Ctx, order *model.Order) {
	if err := h.Store.DeleteOrder(c.UserContext(), order.ID); err != nil {
		h.Log.Error("delete order after payment session failure", "order_id", order.ID, "err", err)
	}
}

func trackedNames(items []model.OrderItem, variants map[uuid.UUID]model.ProductVariant) []string {
	var names []string
	for _, item := range items {
		if variants[item.VariantID].StockQuantity != nil && !slices.Contains(names, item.ProductName) {
			names = append(names, item.ProductName)
		}
	}
	return names
}
