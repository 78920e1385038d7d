package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartItemInput struct {
	VariantID           uuid.UUID       `json:"variantId" validate:"required"`
	Quantity            int             `json:"quantity" validate:"required,gt=0,lte=100"`
	Name                string          `json:"name"`
	Price               decimal.Decimal `json:"price" validate:"-"`
	SpecialInstructions string          `json:"specialInstructions" validate:"max=500"`
}

type ContactInput struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required,max=32"`
}

type AddressInput struct {
	Street    string `json:"street" validate:"required"`
	Apartment string `json:"apartment"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state" validate:"required"`
	ZipCode   string `json:"zipCode" validate:"required"`
}

type CheckoutInput struct {
	Items           []CartItemInput `json:"items" validate:"dive"`
	Contact         ContactInput    `json:"contact"`
	FulfillmentType FulfillmentType `json:"fulfillmentType" validate:"required,oneof=pickup delivery"`
	DeliveryAddress *AddressInput   `json:"deliveryAddress"`
	DeliveryDate    string          `json:"deliveryDate" validate:"required,datetime=2006-01-02"`
	DeliveryWindow  string          `json:"deliveryWindow" validate:"required,max=64"`
	Notes           string          `json:"notes" validate:"max=1000"`
	DiscountCode    string          `json:"discountCode" validate:"max=64"`
	TipAmount       decimal.Decimal `json:"tipAmount" validate:"-"`
}

type CheckoutResult struct {
	URL         string          `json:"url"`
	SessionID   string          `json:"sessionId"`
	OrderID     uuid.UUID       `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	Total       decimal.Decimal `json:"total"`
}

type CancelOrderInput struct {
	Email  string `json:"email" validate:"omitempty,max=255"`
	Reason string `json:"reason" validate:"max=500"`
}

type UpdateOrderStatusInput struct {
	Status OrderStatus `json:"status" validate:"required"`
	Notes  string      `json:"notes" validate:"max=1000"`
}

type DiscountPreview struct {
	Code         string          `json:"code"`
	Type         DiscountType    `json:"type"`
	Discount     decimal.Decimal `json:"discount"`
	FreeDelivery bool            `json:"freeDelivery"`
}
