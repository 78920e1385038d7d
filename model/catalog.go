package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Product struct {
	DTO
	Name        string           `gorm:"size:255;not null" json:"name"`
	Slug        string           `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Description string           `gorm:"type:text" json:"description"`
	Category    string           `gorm:"size:64;index" json:"category"`
	IsActive    bool             `gorm:"not null;default:true" json:"isActive"`
	Variants    []ProductVariant `gorm:"foreignKey:ProductID" json:"variants,omitempty"`
}

type ProductVariant struct {
	DTO
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"productId"`
	Product       *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Price         decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"price"`
	IsAvailable   bool            `gorm:"not null;default:true" json:"isAvailable"`
	StockQuantity *int            `json:"stockQuantity,omitempty"`
}

func (ProductVariant) TableName() string {
	return "product_variants"
}

// Sellable reports whether qty units of the variant can be ordered.
func (v ProductVariant) Sellable(qty int) bool {
	if !v.IsAvailable {
		return false
	}
	if v.Product != nil && !v.Product.IsActive {
		return false
	}
	return v.StockQuantity == nil || *v.StockQuantity >= qty
}

type CreateProductInput struct {
	Name        string               `json:"name" validate:"required,max=255"`
	Description string               `json:"description"`
	Category    string               `json:"category" validate:"required,max=64"`
	Variants    []CreateVariantInput `json:"variants" validate:"required,min=1,dive"`
}

type CreateVariantInput struct {
	Name          string          `json:"name" validate:"required,max=255"`
	Price         decimal.Decimal `json:"price" validate:"-"`
	StockQuantity *int            `json:"stockQuantity" validate:"omitempty,gte=0"`
}
