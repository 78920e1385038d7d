package model

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type DeliveryZone struct {
	DTO
	Name                  string                      `gorm:"size:128;not null" json:"name"`
	ZipCodes              datatypes.JSONSlice[string] `gorm:"type:jsonb;not null" json:"zipCodes"`
	MinimumOrder          decimal.Decimal             `gorm:"type:decimal(10,2);not null;default:0" json:"minimumOrder"`
	DeliveryFee           decimal.Decimal             `gorm:"type:decimal(10,2);not null;default:0" json:"deliveryFee"`
	FreeDeliveryThreshold decimal.NullDecimal         `gorm:"type:decimal(10,2)" json:"freeDeliveryThreshold"`
	EstimatedTime         string                      `gorm:"size:64" json:"estimatedTime"`
	IsActive              bool                        `gorm:"not null;default:true" json:"isActive"`
}

func (z DeliveryZone) Covers(zip string) bool {
	zip = normalizeZip(zip)
	if zip == "" {
		return false
	}
	for _, z := range z.ZipCodes {
		if normalizeZip(z) == zip {
			return true
		}
	}
	return false
}

// FeeFor returns the delivery fee for an order subtotal, honoring the free-delivery threshold.
func (z DeliveryZone) FeeFor(subtotal decimal.Decimal) decimal.Decimal {
	if z.FreeDeliveryThreshold.Valid && subtotal.GreaterThanOrEqual(z.FreeDeliveryThreshold.Decimal) {
		return decimal.Zero
	}
	return z.DeliveryFee
}

// MatchDeliveryZone returns the first active zone covering zip, or nil.
func MatchDeliveryZone(zones []DeliveryZone, zip string) *DeliveryZone {
	for i := range zones {
		if zones[i].IsActive && zones[i].Covers(zip) {
			return &zones[i]
		}
	}
	return nil
}

// normalizeZip keeps the 5-digit prefix of ZIP+4 codes.
func normalizeZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if i := strings.IndexByte(zip, '-'); i > 0 {
		zip = zip[:i]
	}
	return zip
}

type CreateDeliveryZoneInput struct {
	Name                  string              `json:"name" validate:"required,max=128"`
	ZipCodes              []string            `json:"zipCodes" validate:"required,min=1,dive,required"`
	MinimumOrder          decimal.Decimal     `json:"minimumOrder" validate:"-"`
	DeliveryFee           decimal.Decimal     `json:"deliveryFee" validate:"-"`
	FreeDeliveryThreshold decimal.NullDecimal `json:"freeDeliveryThreshold" validate:"-"`
	EstimatedTime         string              `json:"estimatedTime" validate:"max=64"`
}
