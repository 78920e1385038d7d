package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

const SettingBusiness = "business"

type Setting struct {
	Key       string         `gorm:"primaryKey;size:64" json:"key"`
	Value     datatypes.JSON `gorm:"type:jsonb;not null" json:"value"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

type BusinessSettings struct {
	StoreName           string          `json:"storeName" validate:"required,max=255"`
	PickupAddress       string          `json:"pickupAddress" validate:"max=500"`
	Phone               string          `json:"phone" validate:"max=32"`
	DefaultDeliveryFee  decimal.Decimal `json:"defaultDeliveryFee" validate:"-"`
	LoyaltyPointsPerUSD int             `json:"loyaltyPointsPerDollar" validate:"gte=0"`
	Currency            string          `json:"currency" validate:"omitempty,len=3"`
}

func DefaultBusinessSettings() BusinessSettings {
	return BusinessSettings{
		StoreName:           "Hearthstone Bakery",
		DefaultDeliveryFee:  decimal.RequireFromString("5.00"),
		LoyaltyPointsPerUSD: 1,
		Currency:            "usd",
	}
}

// LoyaltyPointsFor returns the points earned for an order total, rounded down.
func (b BusinessSettings) LoyaltyPointsFor(total decimal.Decimal) int {
	if b.LoyaltyPointsPerUSD <= 0 || !total.IsPositive() {
		return 0
	}
	return int(total.Floor().IntPart()) * b.LoyaltyPointsPerUSD
}
