package handler

import (
	"context"

	"bakery_manager/model"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

// OrderSocketUpgrade authorizes a tracking socket before the upgrade. Only callers
// allowed to view the order get a connection.
func (h *Handler) OrderSocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	order, err := h.viewableOrder(c)
	if err != nil || order == nil {
		return err
	}
	c.Locals("order", order)
	return c.Next()
}

// OrderSocket sends the current status, then every status event published for the order.
func (h *Handler) OrderSocket(conn *websocket.Conn) {
	order, ok := conn.Locals("order").(*model.Order)
	if !ok {
		conn.Close()
		return
	}
	log := h.Log.With("component", "order_socket", "order_id", order.ID)
	defer conn.Close()

	snapshot := model.OrderStatusEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		StatusLabel:   order.Status.Label(),
		PaymentStatus: order.PaymentStatus,
		At:            h.now(),
	}
	if err := conn.WriteJSON(snapshot); err != nil {
		return
	}
	if h.Events == nil {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, unsubscribe, err := h.Events.SubscribeStatus(ctx, order.ID)
	if err != nil {
		log.Warn("subscribe order status", "err", err)
		return
	}
	defer unsubscribe()

	// The reader only notices the client going away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case payload, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Debug("socket write failed", "err", err)
				return
			}
		}
	}
}
