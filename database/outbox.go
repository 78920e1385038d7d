package database

import (
	"context"
	"time"

	"bakery_manager/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) AppendHistory(ctx context.Context, entry *model.OrderStatusHistory) error {
	return s.db.WithContext(ctx).Create(entry).Error
}

// ReleaseSlotForOrder runs the deferred slot release of a cancelled or unpaid order. An
// order paid in the meantime keeps its slot.
func (s *Store) ReleaseSlotForOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if gone, err := reservationGiven(tx, orderID); err != nil || !gone {
			return err
		}
		return releaseSlot(tx, orderID, at)
	})
}

func (s *Store) RestoreInventoryForOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if gone, err := reservationGiven(tx, orderID); err != nil || !gone {
			return err
		}
		return restoreInventory(tx, orderID, at)
	})
}

// reservationGiven reports whether the order no longer holds its slot and stock.
func reservationGiven(tx *gorm.DB, orderID uuid.UUID) (bool, error) {
	order, err := lockOrder(tx, orderID)
	if err != nil {
		return false, err
	}
	return order.Status == model.StatusCancelled || order.PaymentStatus == model.PaymentFailed, nil
}

func (s *Store) IncrementDiscountUsage(ctx context.Context, code string) error {
	return s.db.WithContext(ctx).Model(&model.DiscountCode{}).
		Where("code = ?", model.NormalizeDiscountCode(code)).
		Update("current_uses", gorm.Expr("current_uses + 1")).Error
}

func (s *Store) AwardLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error {
	return s.db.WithContext(ctx).Model(&model.Customer{}).
		Where("id = ?", customerID).
		Update("loyalty_points", gorm.Expr("loyalty_points + ?", points)).Error
}

func (s *Store) SaveOutboxTask(ctx context.Context, task *model.OutboxTask) error {
	return s.db.WithContext(ctx).Create(task).Error
}

// PendingOutboxTasks returns unprocessed tasks that still have attempts left, oldest first.
func (s *Store) PendingOutboxTasks(ctx context.Context, maxAttempts, limit int) ([]model.OutboxTask, error) {
	var tasks []model.OutboxTask
	err := s.db.WithContext(ctx).
		Where("processed_at IS NULL AND attempts < ?", maxAttempts).
		Order("created_at ASC").
		Limit(limit).
		Find(&tasks).Error
	return tasks, err
}

func (s *Store) CompleteOutboxTask(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.db.WithContext(ctx).Model(&model.OutboxTask{}).
		Where("id = ?", id).
		Update("processed_at", at).Error
}

func (s *Store) FailOutboxTask(ctx context.Context, id uuid.UUID, reason string) error {
	return s.db.WithContext(ctx).Model(&model.OutboxTask{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"attempts":   gorm.Expr("attempts + 1"),
			"last_error": reason,
		}).Error
}
