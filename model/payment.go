package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutLineItem struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int64
}

// CheckoutSessionRequest is what the payment gateway needs to open a hosted checkout page.
type CheckoutSessionRequest struct {
	OrderID       uuid.UUID
	OrderNumber   string
	CustomerEmail string
	Currency      string
	LineItems     []CheckoutLineItem
	Discount      decimal.Decimal
	SuccessURL    string
	CancelURL     string
}

type CheckoutSession struct {
	ID  string
	URL string
}

// PaymentOutcome says what recording a completed payment did to an order.
type PaymentOutcome int

const (
	// PaymentIgnored means the payment was already recorded or refunded.
	PaymentIgnored PaymentOutcome = iota
	PaymentConfirmed
	// PaymentRecorded means the payment was stored and the status left where an admin put it.
	PaymentRecorded
	// PaymentOnCancelled means the order is cancelled, or had to be, and the money has to be refunded.
	PaymentOnCancelled
)
