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
	"github.com/google/uuid"
)

// CancelOrder lets the owner of an order, or the guest who placed it, cancel before baking starts.
func (h *Handler) CancelOrder(c *fiber.Ctx) error {
	orderID := c.Locals("inputId").(uuid.UUID)
	input := c.Locals("input").(model.CancelOrderInput)
	ctx := c.UserContext()

	order, err := h.Store.GetOrder(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	claim, isCustomer := helper.GetInfoCustomerFromToken(c)
	switch {
	case isCustomer && order.OwnedBy(claim.CustomerId):
	case order.IsGuest() && order.MatchesGuestEmail(input.Email):
	default:
		if order.IsGuest() && input.Email != "" {
			h.Log.Warn("guest email mismatch on cancellation",
				"security", true,
				"order_id", order.ID,
				"ip", c.IP(),
			)
		}
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.CANCEL_FORBIDDEN, nil)
	}

	if ok, msg := order.Status.CanCancel(); !ok {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, msg, nil)
	}

	applied, err := h.Store.CancelOrder(ctx, order.ID, h.now())
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !applied {
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.CANCEL_RACE, nil)
	}
	order.Status = model.StatusCancelled

	reason := strings.TrimSpace(input.Reason)
	if reason == "" {
		reason = constants.CANCEL_DEFAULT_REASON
	}
	var changedBy *uuid.UUID
	if isCustomer {
		changedBy = &claim.CustomerId
	}
	h.Effects.Run(ctx,
		model.RestoreInventoryTask(order.ID),
		model.ReleaseSlotTask(order.ID),
		model.HistoryTask(order.ID, model.StatusCancelled, reason, changedBy),
	)
	h.publish(ctx, order)
	h.Log.Info("order cancelled", "order_id", order.ID, "guest", order.IsGuest())

	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message": constants.CANCEL_SUCCESS,
		"order":   order,
	})
}

// GetOrder returns an order to its owner, to the guest with ?email=, or to an admin.
func (h *Handler) GetOrder(c *fiber.Ctx) error {
	order, err := h.viewableOrder(c)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) OrderHistory(c *fiber.Ctx) error {
	order, err := h.viewableOrder(c)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}
	history, err := h.Store.OrderHistory(c.UserContext(), order.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, history)
}

// viewableOrder loads the order named in the route and checks that the caller may see it.
// A nil order means a response has already been written.
func (h *Handler) viewableOrder(c *fiber.Ctx) (*model.Order, error) {
	orderID := c.Locals("inputId").(uuid.UUID)
	order, err := h.Store.GetOrder(c.UserContext(), orderID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, nil)
	}
	if err != nil {
		return nil, utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !h.canView(c, order) {
		return nil, utils.ErrorResponse(c, fiber.StatusForbidden, constants.FORBIDDEN, nil)
	}
	return order, nil
}

func (h *Handler) canView(c *fiber.Ctx, order *model.Order) bool {
	claim, ok := helper.GetInfoCustomerFromToken(c)
	if ok && (claim.Role == constants.ROLE_ADMIN || order.OwnedBy(claim.CustomerId)) {
		return true
	}
	return order.IsGuest() && order.MatchesGuestEmail(c.Query("email"))
}

func (h *Handler) ListMyOrders(c *fiber.Ctx) error {
	claim, ok := helper.GetInfoCustomerFromToken(c)
	if !ok {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.LOGIN_REQUIRED, nil)
	}
	var p model.Pagination
	if err := c.QueryParser(&p); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_REQUEST_BODY, err)
	}

	orders, total, err := h.Store.ListCustomerOrders(c.UserContext(), claim.CustomerId, p)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       orders,
		Limit:      p.Limit,
		Page:       p.Page,
		TotalCount: total,
	})
}

func (h *Handler) AdminListOrders(c *fiber.Ctx) error {
	var filter model.OrderFilter
	if err := c.QueryParser(&filter); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_REQUEST_BODY, err)
	}
	if filter.Status != "" && !model.OrderStatus(filter.Status).Valid() {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.INVALID_ORDER_STATUS, nil)
	}

	orders, total, err := h.Store.ListOrders(c.UserContext(), filter)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, model.ResponseCustom{
		Rows:       orders,
		Limit:      filter.Limit,
		Page:       filter.Page,
		TotalCount: total,
	})
}

// AdminUpdateOrderStatus moves an order along its fulfillment flow.
func (h *Handler) AdminUpdateOrderStatus(c *fiber.Ctx) error {
	orderID := c.Locals("inputId").(uuid.UUID)
	input := c.Locals("input").(model.UpdateOrderStatusInput)
	ctx := c.UserContext()
	admin, _ := helper.GetInfoCustomerFromToken(c)

	order, err := h.Store.GetOrder(ctx, orderID)
	if errors.Is(err, database.ErrNotFound) {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.ORDER_NOT_FOUND, nil)
	}
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	from, to := order.Status, input.Status
	if !from.CanTransitionTo(to, order.FulfillmentType) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, fmt.Sprintf(constants.INVALID_TRANSITION, from, to), nil)
	}
	notes := strings.TrimSpace(input.Notes)

	if from == to {
		if notes != "" {
			h.Effects.Run(ctx, model.HistoryTask(order.ID, to, notes, &admin.CustomerId))
		}
		return utils.SuccessResponse(c, fiber.StatusOK, order)
	}

	now := h.now()
	extra := map[string]any{}
	switch {
	case to == model.StatusConfirmed && order.ConfirmedAt == nil:
		extra["confirmed_at"] = now
		order.ConfirmedAt = &now
	case to.IsCompleted():
		extra["completed_at"] = now
		order.CompletedAt = &now
	case to == model.StatusCancelled:
		extra["cancelled_at"] = now
		order.CancelledAt = &now
	}

	applied, err := h.Store.UpdateOrderStatus(ctx, order.ID, from, to, extra)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if !applied {
		return utils.ErrorResponse(c, fiber.StatusConflict, constants.STATUS_RACE, nil)
	}
	order.Status = to

	tasks := []model.OutboxTask{model.HistoryTask(order.ID, to, notes, &admin.CustomerId)}
	if to == model.StatusCancelled {
		tasks = append(tasks, model.ReleaseSlotTask(order.ID), model.RestoreInventoryTask(order.ID))
	}
	h.Effects.Run(ctx, tasks...)

	if email := order.ContactEmail(); email != "" {
		h.Mailer.SendStatusUpdate(email, h.statusEmail(order, notes))
	}
	h.publish(ctx, order)
	h.Log.Info("order status updated",
		"order_id", order.ID,
		"from", from,
		"to", to,
		"admin_id", admin.CustomerId,
	)
	return utils.SuccessResponse(c, fiber.StatusOK, order)
}

func (h *Handler) confirmationEmail(order *model.Order) utils.OrderEmailData {
	data := utils.OrderEmailData{
		CustomerName:     order.ContactName,
		OrderNumber:      order.OrderNumber,
		FulfillmentLabel: "Pickup",
		Date:             order.DeliveryDate.String(),
		Window:           order.DeliveryWindow,
		Subtotal:         order.Subtotal.StringFixed(2),
		Tax:              order.TaxAmount.StringFixed(2),
		Total:            order.Total.StringFixed(2),
		TrackingLink:     h.trackingLink(order),
	}
	if order.FulfillmentType == model.FulfillmentDelivery {
		data.FulfillmentLabel = "Delivery"
	}
	if address := order.DeliveryAddress.Data(); address != nil {
		parts := []string{address.Street, address.Apartment, address.City, address.State + " " + address.ZipCode}
		data.Address = strings.Join(nonEmpty(parts), ", ")
	}
	if order.DiscountAmount.IsPositive() {
		data.Discount = order.DiscountAmount.StringFixed(2)
	}
	if order.DeliveryFee.IsPositive() {
		data.DeliveryFee = order.DeliveryFee.StringFixed(2)
	}
	if order.TipAmount.IsPositive() {
		data.Tip = order.TipAmount.StringFixed(2)
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, utils.EmailItem{
			Name:     item.DisplayName(),
			Quantity: item.Quantity,
			Total:    item.TotalPrice.StringFixed(2),
		})
	}
	return data
}

func (h *Handler) statusEmail(order *model.Order, notes string) utils.StatusEmailData {
	return utils.StatusEmailData{
		CustomerName: order.ContactName,
		OrderNumber:  order.OrderNumber,
		StatusLabel:  order.Status.Label(),
		Ready:        order.Status == model.StatusReady,
		IsPickup:     order.FulfillmentType == model.FulfillmentPickup,
		Notes:        notes,
		TrackingLink: h.trackingLink(order),
	}
}

func nonEmpty(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
