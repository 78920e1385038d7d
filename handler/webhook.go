package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"bakery_manager/constants"
	"bakery_manager/database"
	"bakery_manager/model"
	"bakery_manager/payment"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
)

const (
	eventSessionCompleted = "checkout.session.completed"
	eventSessionExpired   = "checkout.session.expired"
	eventPaymentFailed    = "payment_intent.payment_failed"
	eventChargeRefunded   = "charge.refunded"

	paidWhileCancelledNote = "Payment received for a cancelled order - refund required"
)

// StripeWebhook reconciles orders with payment events. Events are verified before
// anything is parsed, and each event id is applied at most once.
func (h *Handler) StripeWebhook(c *fiber.Ctx) error {
	event, err := h.Payments.ConstructEvent(c.Body(), c.Get(constants.HEADER_STRIPE_SIGNATURE))
	if err != nil {
		h.Log.Warn("webhook signature verification failed",
			"security", true,
			"ip", c.IP(),
			"err", err,
		)
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.WEBHOOK_INVALID_SIGNATURE, nil)
	}

	ctx := c.UserContext()
	eventType := string(event.Type)
	log := h.Log.With("event_id", event.ID, "event_type", eventType)

	seen, err := h.Store.WebhookEventProcessed(ctx, event.ID)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	if seen {
		log.Info("duplicate webhook event skipped")
		return c.JSON(fiber.Map{"received": true, "duplicate": true})
	}

	switch eventType {
	case eventSessionCompleted:
		err = h.sessionCompleted(ctx, log, event)
	case eventSessionExpired:
		err = h.sessionExpired(ctx, log, event)
	case eventPaymentFailed:
		err = h.paymentFailed(ctx, log, event)
	case eventChargeRefunded:
		err = h.chargeRefunded(ctx, log, event)
	default:
		log.Debug("unhandled webhook event")
	}
	if err != nil {
		// Not recorded, so the provider's retry applies it again.
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	if err := h.Store.RecordWebhookEvent(ctx, event.ID, eventType, h.now()); err != nil {
		log.Error("record webhook event", "err", err)
	}
	return c.JSON(fiber.Map{"received": true})
}

func (h *Handler) sessionCompleted(ctx context.Context, log *slog.Logger, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error("decode checkout session", "err", err)
		return nil
	}
	order, err := h.orderFromMetadata(ctx, session.Metadata)
	if err != nil {
		return ignoreMissing(log, err)
	}

	var paymentIntentID string
	if session.PaymentIntent != nil {
		paymentIntentID = session.PaymentIntent.ID
	}
	outcome, err := h.Store.MarkOrderPaid(ctx, order.ID, paymentIntentID, h.now())
	if err != nil {
		return err
	}
	switch outcome {
	case model.PaymentIgnored:
		log.Info("order already paid", "order_id", order.ID)
		return nil
	case model.PaymentOnCancelled:
		order.Status = model.StatusCancelled
		order.PaymentStatus = model.PaymentPaid
		h.Effects.Run(ctx, model.HistoryTask(order.ID, model.StatusCancelled, paidWhileCancelledNote, nil))
		h.publish(ctx, order)
		log.Warn("payment received for cancelled order, refund required",
			"order_id", order.ID,
			"order_number", order.OrderNumber,
		)
		return nil
	case model.PaymentConfirmed:
		order.Status = model.StatusConfirmed
	}
	order.PaymentStatus = model.PaymentPaid

	tasks := []model.OutboxTask{model.HistoryTask(order.ID, order.Status, "Payment received", nil)}
	if order.DiscountCode != nil {
		tasks = append(tasks, model.IncrementDiscountTask(order.ID, *order.DiscountCode))
	}
	if order.CustomerID != nil {
		business, err := h.Settings.Business(ctx)
		if err != nil {
			log.Warn("business settings unavailable, using defaults", "err", err)
			business = model.DefaultBusinessSettings()
		}
		if points := business.LoyaltyPointsFor(order.Total); points > 0 {
			tasks = append(tasks, model.AwardLoyaltyTask(order.ID, *order.CustomerID, points))
		}
	}
	h.Effects.Run(ctx, tasks...)

	if to := order.ContactEmail(); to != "" {
		h.Mailer.SendOrderConfirmation(to, h.confirmationEmail(order))
	}
	h.publish(ctx, order)
	log.Info("order paid", "order_id", order.ID, "order_number", order.OrderNumber, "status", order.Status)
	return nil
}

func (h *Handler) sessionExpired(ctx context.Context, log *slog.Logger, event stripe.Event) error {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error("decode checkout session", "err", err)
		return nil
	}
	orderID, err := uuid.Parse(session.Metadata[payment.MetadataOrderID])
	if err != nil {
		log.Warn("checkout session without order id")
		return nil
	}

	applied, err := h.Store.CancelUnpaidOrder(ctx, orderID, h.now())
	if err != nil {
		return err
	}
	if !applied {
		log.Info("expired session ignored, payment no longer pending", "order_id", orderID)
		return nil
	}

	h.Effects.Run(ctx,
		model.ReleaseSlotTask(orderID),
		model.RestoreInventoryTask(orderID),
		model.HistoryTask(orderID, model.StatusCancelled, "checkout session expired - time slot released", nil),
	)
	h.publishByID(ctx, log, orderID)
	log.Info("order expired", "order_id", orderID)
	return nil
}

func (h *Handler) paymentFailed(ctx context.Context, log *slog.Logger, event stripe.Event) error {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		log.Error("decode payment intent", "err", err)
		return nil
	}

	order, err := h.Store.FindOrderByPaymentIntent(ctx, intent.ID)
	if errors.Is(err, database.ErrNotFound) {
		order, err = h.orderFromMetadata(ctx, intent.Metadata)
	}
	if err != nil {
		return ignoreMissing(log, err)
	}

	// The status stays put: the customer may retry within the same session, which then
	// claims the slot and stock again.
	applied, err := h.Store.FailOrderPayment(ctx, order.ID)
	if err != nil {
		return err
	}
	if !applied {
		log.Info("payment failure ignored, payment no longer pending", "order_id", order.ID)
		return nil
	}
	order.PaymentStatus = model.PaymentFailed

	h.Effects.Run(ctx,
		model.ReleaseSlotTask(order.ID),
		model.RestoreInventoryTask(order.ID),
		model.HistoryTask(order.ID, order.Status, "cancelled: payment failed", nil),
	)
	h.publish(ctx, order)
	log.Info("order payment failed", "order_id", order.ID)
	return nil
}

func (h *Handler) chargeRefunded(ctx context.Context, log *slog.Logger, event stripe.Event) error {
	var charge stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
		log.Error("decode charge", "err", err)
		return nil
	}
	if charge.PaymentIntent == nil || charge.PaymentIntent.ID == "" {
		log.Warn("refunded charge without payment intent", "charge_id", charge.ID)
		return nil
	}

	order, err := h.Store.FindOrderByPaymentIntent(ctx, charge.PaymentIntent.ID)
	if err != nil {
		return ignoreMissing(log, err)
	}
	amount := fmt.Sprintf("%s %s",
		payment.FromCents(charge.AmountRefunded).StringFixed(2),
		strings.ToUpper(string(charge.Currency)),
	)

	// A partial refund is only noted; the order keeps its status and payment status.
	if !charge.Refunded {
		if order.PaymentStatus == model.PaymentRefunded {
			return nil
		}
		h.Effects.Run(ctx, model.HistoryTask(order.ID, order.Status, "Partially refunded "+amount, nil))
		log.Info("order partially refunded", "order_id", order.ID, "amount_refunded", charge.AmountRefunded, "amount", charge.Amount)
		return nil
	}

	applied, err := h.Store.RefundOrder(ctx, order.ID)
	if err != nil {
		return err
	}
	if !applied {
		log.Info("order already refunded", "order_id", order.ID)
		return nil
	}
	order.Status = model.StatusRefunded
	order.PaymentStatus = model.PaymentRefunded

	h.Effects.Run(ctx, model.HistoryTask(order.ID, model.StatusRefunded, "Refunded "+amount, nil))
	h.publish(ctx, order)
	log.Info("order refunded", "order_id", order.ID)
	return nil
}

func (h *Handler) orderFromMetadata(ctx context.Context, metadata map[string]string) (*model.Order, error) {
	orderID, err := uuid.Parse(metadata[payment.MetadataOrderID])
	if err != nil {
		return nil, database.ErrNotFound
	}
	return h.Store.GetOrder(ctx, orderID)
}

func (h *Handler) publishByID(ctx context.Context, log *slog.Logger, orderID uuid.UUID) {
	if h.Events == nil {
		return
	}
	order, err := h.Store.GetOrder(ctx, orderID)
	if err != nil {
		log.Warn("load order for status event", "order_id", orderID, "err", err)
		return
	}
	h.publish(ctx, order)
}

// ignoreMissing turns an unknown order into a logged no-op so the provider stops retrying.
func ignoreMissing(log *slog.Logger, err error) error {
	if errors.Is(err, database.ErrNotFound) {
		log.Warn("no matching order for webhook event")
		return nil
	}
	return err
}
