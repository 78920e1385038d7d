package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage   DiscountType = "percentage"
	DiscountFixed        DiscountType = "fixed"
	DiscountFreeDelivery DiscountType = "free_delivery"
)

type DiscountCode struct {
	DTO
	Code           string              `gorm:"size:64;uniqueIndex;not null" json:"code"`
	Type           DiscountType        `gorm:"type:varchar(16);not null" json:"type"`
	Value          decimal.Decimal     `gorm:"type:decimal(10,2);not null;default:0" json:"value"`
	MinOrderAmount decimal.NullDecimal `gorm:"type:decimal(10,2)" json:"minOrderAmount"`
	MaxUses        *int                `json:"maxUses,omitempty"`
	CurrentUses    int                 `gorm:"not null;default:0" json:"currentUses"`
	ValidFrom      *time.Time          `json:"validFrom,omitempty"`
	ValidUntil     *time.Time          `json:"validUntil,omitempty"`
	IsActive       bool                `gorm:"not null;default:true" json:"isActive"`
}

// Usable reports whether the code may be redeemed at now, ignoring order size.
func (d DiscountCode) Usable(now time.Time) bool {
	if !d.IsActive {
		return false
	}
	if d.ValidFrom != nil && now.Before(*d.ValidFrom) {
		return false
	}
	if d.ValidUntil != nil && now.After(*d.ValidUntil) {
		return false
	}
	return d.MaxUses == nil || d.CurrentUses < *d.MaxUses
}

func (d DiscountCode) MeetsMinimum(subtotal decimal.Decimal) bool {
	return !d.MinOrderAmount.Valid || subtotal.GreaterThanOrEqual(d.MinOrderAmount.Decimal)
}

// Apply returns the discount for subtotal and whether delivery becomes free.
// The discount never exceeds the subtotal.
func (d DiscountCode) Apply(subtotal decimal.Decimal) (decimal.Decimal, bool) {
	var discount decimal.Decimal
	switch d.Type {
	case DiscountPercentage:
		discount = subtotal.Mul(d.Value).Div(decimal.NewFromInt(100)).Round(2)
	case DiscountFixed:
		discount = d.Value
	case DiscountFreeDelivery:
		return decimal.Zero, true
	}
	if discount.GreaterThan(subtotal) {
		discount = subtotal
	}
	if discount.IsNegative() {
		discount = decimal.Zero
	}
	return discount, false
}

func NormalizeDiscountCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type CreateDiscountCodeInput struct {
	Code           string              `json:"code" validate:"required,max=64"`
	Type           DiscountType        `json:"type" validate:"required,oneof=percentage fixed free_delivery"`
	Value          decimal.Decimal     `json:"value" validate:"-"`
	MinOrderAmount decimal.NullDecimal `json:"minOrderAmount" validate:"-"`
	MaxUses        *int                `json:"maxUses" validate:"omitempty,gt=0"`
	ValidFrom      *time.Time          `json:"validFrom"`
	ValidUntil     *time.Time          `json:"validUntil"`
}
