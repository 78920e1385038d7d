package model

import "bakery_manager/utils"

type TimeSlot struct {
	DTO
	Date          utils.CustomDate `gorm:"type:date;not null;uniqueIndex:idx_time_slot_window" json:"date"`
	StartTime     string           `gorm:"size:5;not null;uniqueIndex:idx_time_slot_window" json:"startTime"`
	EndTime       string           `gorm:"size:5;not null" json:"endTime"`
	Label         string           `gorm:"size:64" json:"label"`
	MaxOrders     int              `gorm:"not null;default:10" json:"maxOrders"`
	CurrentOrders int              `gorm:"not null;default:0" json:"currentOrders"`
	IsAvailable   bool             `gorm:"not null;default:true" json:"isAvailable"`
}

func (s TimeSlot) IsFull() bool {
	return s.CurrentOrders >= s.MaxOrders
}

func (s TimeSlot) Remaining() int {
	if s.IsFull() {
		return 0
	}
	return s.MaxOrders - s.CurrentOrders
}

type CreateTimeSlotInput struct {
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
	Label     string `json:"label" validate:"max=64"`
	MaxOrders int    `json:"maxOrders" validate:"required,gt=0"`
}
