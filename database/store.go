package database

import (
	"context"
	"errors"
	"time"

	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// errReclaim means capacity handed back by an unpaid order was taken by someone else.
var errReclaim = errors.New("released slot or stock no longer available")

// Store is the system of record for orders, catalog and bookkeeping.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// CreateOrder inserts the order with its items and takes tracked stock in one transaction.
// ErrOutOfStock means a tracked variant no longer has enough units.
func (s *Store) CreateOrder(ctx context.Context, order *model.Order) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for _, item := range order.Items {
			res := tx.Model(&model.ProductVariant{}).
				Where("id = ? AND (stock_quantity IS NULL OR stock_quantity >= ?)", item.VariantID, item.Quantity).
				Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrOutOfStock
			}
		}
		return nil
	})
}

func (s *Store) SetOrderSession(ctx context.Context, orderID uuid.UUID, sessionID string) error {
	return s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Update("stripe_session_id", sessionID).Error
}

// DeleteOrder removes an order that never reached the payment page, giving back its
// stock and slot.
func (s *Store) DeleteOrder(ctx context.Context, orderID uuid.UUID) error {
	now := time.Now()
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := restoreInventory(tx, orderID, now); err != nil {
			return err
		}
		if err := releaseSlot(tx, orderID, now); err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderStatusHistory{}).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", orderID).Delete(&model.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Order{}, "id = ?", orderID).Error
	})
}

func (s *Store) GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

func (s *Store) FindOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.Order, error) {
	var order model.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("Customer").
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		First(&order).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// MarkOrderPaid records a completed payment. Cancelled orders keep their status and
// await a refund. After a failed attempt the slot and stock already handed back are
// claimed again; when someone else took them the order is cancelled for a refund.
func (s *Store) MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string, at time.Time) (model.PaymentOutcome, error) {
	outcome := model.PaymentIgnored
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		order, err := lockOrder(tx, orderID)
		if err != nil {
			return err
		}
		if order.PaymentStatus != model.PaymentPending && order.PaymentStatus != model.PaymentFailed {
			return nil
		}

		updates := map[string]any{"payment_status": model.PaymentPaid}
		if paymentIntentID != "" {
			updates["stripe_payment_intent_id"] = paymentIntentID
		}
		outcome = model.PaymentRecorded
		if order.Status == model.StatusCancelled {
			outcome = model.PaymentOnCancelled
		} else if order.PaymentStatus == model.PaymentFailed {
			err := tx.Transaction(func(tx *gorm.DB) error {
				return reclaimOrder(tx, order)
			})
			switch {
			case err == nil:
				updates["slot_released_at"] = nil
				updates["inventory_restored_at"] = nil
			case errors.Is(err, errReclaim):
				outcome = model.PaymentOnCancelled
				updates["status"] = model.StatusCancelled
				updates["cancelled_at"] = at
			default:
				return err
			}
		}
		if outcome == model.PaymentRecorded && order.Status == model.StatusReceived {
			outcome = model.PaymentConfirmed
			updates["status"] = model.StatusConfirmed
			updates["confirmed_at"] = at
		}
		return tx.Model(&model.Order{}).Where("id = ?", orderID).Updates(updates).Error
	})
	if err != nil {
		return model.PaymentIgnored, err
	}
	return outcome, nil
}

// FailOrderPayment records a failed payment attempt. The order keeps its status so a
// retry within the same checkout session can still complete it.
func (s *Store) FailOrderPayment(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.updateOrderWhere(ctx, orderID, "payment_status = ? AND status IN ?",
		[]any{model.PaymentPending, model.CancellableStatuses}, map[string]any{
			"payment_status": model.PaymentFailed,
		})
}

// CancelUnpaidOrder cancels an order only while it is unpaid and nobody has cancelled
// it yet.
func (s *Store) CancelUnpaidOrder(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	return s.updateOrderWhere(ctx, orderID, "payment_status IN ? AND status IN ?",
		[]any{[]model.PaymentStatus{model.PaymentPending, model.PaymentFailed}, model.CancellableStatuses},
		map[string]any{
			"status":         model.StatusCancelled,
			"payment_status": model.PaymentFailed,
			"cancelled_at":   at,
		})
}

func (s *Store) RefundOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	return s.updateOrderWhere(ctx, orderID, "payment_status <> ?", []any{model.PaymentRefunded}, map[string]any{
		"status":         model.StatusRefunded,
		"payment_status": model.PaymentRefunded,
	})
}

// CancelOrder is the customer cancellation write. It only applies while the order is
// still in a cancellable status.
func (s *Store) CancelOrder(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	return s.updateOrderWhere(ctx, orderID, "status IN ?", []any{model.CancellableStatuses}, map[string]any{
		"status":       model.StatusCancelled,
		"cancelled_at": at,
	})
}

// UpdateOrderStatus moves an order from one status to another. extra holds timestamp
// columns set alongside the status.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus, extra map[string]any) (bool, error) {
	updates := map[string]any{"status": to}
	for k, v := range extra {
		updates[k] = v
	}
	return s.updateOrderWhere(ctx, orderID, "status = ?", []any{from}, updates)
}

func (s *Store) updateOrderWhere(ctx context.Context, orderID uuid.UUID, cond string, args []any, updates map[string]any) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Where(cond, args...).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Order{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filter.PaymentStatus)
	}
	if filter.Date != "" {
		query = query.Where("delivery_date = ?", filter.Date)
	}
	return listOrders(query, filter.Pagination)
}

func (s *Store) ListCustomerOrders(ctx context.Context, customerID uuid.UUID, p model.Pagination) ([]model.Order, int64, error) {
	query := s.db.WithContext(ctx).Model(&model.Order{}).Where("customer_id = ?", customerID)
	return listOrders(query, p)
}

func listOrders(query *gorm.DB, p model.Pagination) ([]model.Order, int64, error) {
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var orders []model.Order
	err := query.Scopes(utils.Paginate(p.Limit, p.Page)).
		Preload("Items").
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (s *Store) OrderHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error) {
	var rows []model.OrderStatusHistory
	err := s.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

func (s *Store) WebhookEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.ProcessedWebhookEvent{}).
		Where("event_id = ?", eventID).
		Count(&count).Error
	return count > 0, err
}

func (s *Store) RecordWebhookEvent(ctx context.Context, eventID, eventType string, at time.Time) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.ProcessedWebhookEvent{EventID: eventID, Type: eventType, ProcessedAt: at}).Error
}

func lockOrder(tx *gorm.DB, orderID uuid.UUID) (*model.Order, error) {
	var order model.Order
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", orderID).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &order, nil
}

// releaseSlot gives the order's slot capacity back once. The counter never drops below zero.
func releaseSlot(tx *gorm.DB, orderID uuid.UUID, at time.Time) error {
	order, err := lockOrder(tx, orderID)
	if err != nil {
		return err
	}
	if order.TimeSlotID == nil || order.SlotReleasedAt != nil {
		return nil
	}
	err = tx.Model(&model.TimeSlot{}).
		Where("id = ?", *order.TimeSlotID).
		Update("current_orders", gorm.Expr("GREATEST(current_orders - 1, 0)")).Error
	if err != nil {
		return err
	}
	return tx.Model(&model.Order{}).Where("id = ?", orderID).Update("slot_released_at", at).Error
}

// restoreInventory puts tracked stock back for every item of the order, once.
func restoreInventory(tx *gorm.DB, orderID uuid.UUID, at time.Time) error {
	order, err := lockOrder(tx, orderID)
	if err != nil {
		return err
	}
	if order.InventoryRestoredAt != nil {
		return nil
	}
	var items []model.OrderItem
	if err := tx.Where("order_id = ?", orderID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		err := tx.Model(&model.ProductVariant{}).
			Where("id = ? AND stock_quantity IS NOT NULL", item.VariantID).
			Update("stock_quantity", gorm.Expr("stock_quantity + ?", item.Quantity)).Error
		if err != nil {
			return err
		}
	}
	return tx.Model(&model.Order{}).Where("id = ?", orderID).Update("inventory_restored_at", at).Error
}

// reclaimOrder takes back the slot capacity and stock an order already handed back.
// Releases that have not run yet are left alone.
func reclaimOrder(tx *gorm.DB, order *model.Order) error {
	if order.TimeSlotID != nil && order.SlotReleasedAt != nil {
		res := tx.Model(&model.TimeSlot{}).
			Where("id = ? AND current_orders < max_orders", *order.TimeSlotID).
			Update("current_orders", gorm.Expr("current_orders + 1"))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errReclaim
		}
	}
	if order.InventoryRestoredAt == nil {
		return nil
	}
	var items []model.OrderItem
	if err := tx.Where("order_id = ?", order.ID).Find(&items).Error; err != nil {
		return err
	}
	for _, item := range items {
		res := tx.Model(&model.ProductVariant{}).
			Where("id = ? AND (stock_quantity IS NULL OR stock_quantity >= ?)", item.VariantID, item.Quantity).
			Update("stock_quantity", gorm.Expr("stock_quantity - ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errReclaim
		}
	}
	return nil
}
