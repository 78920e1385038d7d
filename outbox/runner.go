package outbox

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bakery_manager/model"

	"github.com/google/uuid"
)

// MaxAttempts bounds how often a persisted task is retried.
const MaxAttempts = 10

const reconcileBatch = 100

type Store interface {
	SaveOutboxTask(ctx context.Context, task *model.OutboxTask) error
	PendingOutboxTasks(ctx context.Context, maxAttempts, limit int) ([]model.OutboxTask, error)
	CompleteOutboxTask(ctx context.Context, id uuid.UUID, at time.Time) error
	FailOutboxTask(ctx context.Context, id uuid.UUID, reason string) error
}

// Effects applies the secondary writes that follow an order status change.
// ReleaseSlotForOrder and RestoreInventoryForOrder must be safe to repeat.
type Effects interface {
	AppendHistory(ctx context.Context, entry *model.OrderStatusHistory) error
	ReleaseSlotForOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error
	RestoreInventoryForOrder(ctx context.Context, orderID uuid.UUID, at time.Time) error
	IncrementDiscountUsage(ctx context.Context, code string) error
	AwardLoyaltyPoints(ctx context.Context, customerID uuid.UUID, points int) error
}

type Runner struct {
	store   Store
	effects Effects
	log     *slog.Logger
	now     func() time.Time
}

func NewRunner(store Store, effects Effects, log *slog.Logger) *Runner {
	return &Runner{
		store:   store,
		effects: effects,
		log:     log.With("component", "outbox"),
		now:     time.Now,
	}
}

// Run applies tasks right away. A task that fails is persisted for Reconcile and never
// reported to the caller.
func (r *Runner) Run(ctx context.Context, tasks ...model.OutboxTask) {
	for _, task := range tasks {
		err := r.execute(ctx, task)
		if err == nil {
			continue
		}
		r.log.Warn("secondary effect failed, queued for retry",
			"kind", task.Kind,
			"order_id", task.OrderID,
			"err", err,
		)

		task.Attempts = 1
		task.LastError = err.Error()
		// The caller's request may already be gone.
		if err := r.store.SaveOutboxTask(context.WithoutCancel(ctx), &task); err != nil {
			r.log.Error("persist outbox task",
				"kind", task.Kind,
				"order_id", task.OrderID,
				"err", err,
			)
		}
	}
}

// Reconcile retries pending tasks and returns how many succeeded.
func (r *Runner) Reconcile(ctx context.Context) (int, error) {
	tasks, err := r.store.PendingOutboxTasks(ctx, MaxAttempts, reconcileBatch)
	if err != nil {
		return 0, fmt.Errorf("load pending outbox tasks: %w", err)
	}

	done := 0
	for _, task := range tasks {
		if err := r.execute(ctx, task); err != nil {
			if task.Attempts+1 >= MaxAttempts {
				r.log.Error("outbox task exhausted retries",
					"id", task.ID,
					"kind", task.Kind,
					"order_id", task.OrderID,
					"err", err,
				)
			}
			if ferr := r.store.FailOutboxTask(ctx, task.ID, err.Error()); ferr != nil {
				r.log.Error("record outbox failure", "id", task.ID, "err", ferr)
			}
			continue
		}
		if err := r.store.CompleteOutboxTask(ctx, task.ID, r.now()); err != nil {
			r.log.Error("complete outbox task", "id", task.ID, "err", err)
			continue
		}
		done++
	}
	return done, nil
}

func (r *Runner) execute(ctx context.Context, task model.OutboxTask) error {
	p := task.Payload.Data()
	switch task.Kind {
	case model.TaskAppendHistory:
		at := task.CreatedAt
		if at.IsZero() {
			at = r.now()
		}
		return r.effects.AppendHistory(ctx, &model.OrderStatusHistory{
			OrderID:   task.OrderID,
			Status:    p.Status,
			Notes:     p.Notes,
			ChangedBy: p.ChangedBy,
			CreatedAt: at,
		})
	case model.TaskReleaseSlot:
		return r.effects.ReleaseSlotForOrder(ctx, task.OrderID, r.now())
	case model.TaskRestoreInventory:
		return r.effects.RestoreInventoryForOrder(ctx, task.OrderID, r.now())
	case model.TaskIncrementDiscount:
		return r.effects.IncrementDiscountUsage(ctx, p.Code)
	case model.TaskAwardLoyalty:
		if p.CustomerID == nil || p.Points <= 0 {
			return nil
		}
		return r.effects.AwardLoyaltyPoints(ctx, *p.CustomerID, p.Points)
	}
	return fmt.Errorf("unknown outbox task kind %q", task.Kind)
}
