package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OutboxKind string

const (
	TaskAppendHistory     OutboxKind = "append_history"
	TaskReleaseSlot       OutboxKind = "release_slot"
	TaskRestoreInventory  OutboxKind = "restore_inventory"
	TaskIncrementDiscount OutboxKind = "increment_discount"
	TaskAwardLoyalty      OutboxKind = "award_loyalty"
)

// OutboxPayload carries the arguments of a task. Unused fields stay empty.
type OutboxPayload struct {
	Status     OrderStatus `json:"status,omitempty"`
	Notes      *string     `json:"notes,omitempty"`
	ChangedBy  *uuid.UUID  `json:"changedBy,omitempty"`
	Code       string      `json:"code,omitempty"`
	CustomerID *uuid.UUID  `json:"customerId,omitempty"`
	Points     int         `json:"points,omitempty"`
}

type OutboxTask struct {
	DTO
	Kind        OutboxKind                        `gorm:"type:varchar(32);not null" json:"kind"`
	OrderID     uuid.UUID                         `gorm:"type:uuid;not null;index" json:"orderId"`
	Payload     datatypes.JSONType[OutboxPayload] `gorm:"type:jsonb" json:"payload"`
	Attempts    int                               `gorm:"not null;default:0" json:"attempts"`
	LastError   string                            `gorm:"type:text" json:"lastError"`
	ProcessedAt *time.Time                        `gorm:"index" json:"processedAt,omitempty"`
}

func HistoryTask(orderID uuid.UUID, status OrderStatus, notes string, changedBy *uuid.UUID) OutboxTask {
	p := OutboxPayload{Status: status, ChangedBy: changedBy}
	if notes != "" {
		p.Notes = &notes
	}
	return OutboxTask{Kind: TaskAppendHistory, OrderID: orderID, Payload: datatypes.NewJSONType(p)}
}

func ReleaseSlotTask(orderID uuid.UUID) OutboxTask {
	return OutboxTask{Kind: TaskReleaseSlot, OrderID: orderID}
}

func RestoreInventoryTask(orderID uuid.UUID) OutboxTask {
	return OutboxTask{Kind: TaskRestoreInventory, OrderID: orderID}
}

func IncrementDiscountTask(orderID uuid.UUID, code string) OutboxTask {
	return OutboxTask{Kind: TaskIncrementDiscount, OrderID: orderID, Payload: datatypes.NewJSONType(OutboxPayload{Code: code})}
}

func AwardLoyaltyTask(orderID, customerID uuid.UUID, points int) OutboxTask {
	return OutboxTask{
		Kind:    TaskAwardLoyalty,
		OrderID: orderID,
		Payload: datatypes.NewJSONType(OutboxPayload{CustomerID: &customerID, Points: points}),
	}
}

type ProcessedWebhookEvent struct {
	EventID     string    `gorm:"primaryKey;size:255" json:"eventId"`
	Type        string    `gorm:"size:64;not null" json:"type"`
	ProcessedAt time.Time `gorm:"not null" json:"processedAt"`
}
