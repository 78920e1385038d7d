package model

import "github.com/shopspring/decimal"

var TaxRate = decimal.RequireFromString("0.08")

type Totals struct {
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	DeliveryFee    decimal.Decimal `json:"deliveryFee"`
	TipAmount      decimal.Decimal `json:"tipAmount"`
	TaxAmount      decimal.Decimal `json:"taxAmount"`
	Total          decimal.Decimal `json:"total"`
}

// ComputeTotals applies the fixed tax rate to the discounted subtotal.
// Fees and tips are not taxed.
func ComputeTotals(subtotal, discount, deliveryFee, tip decimal.Decimal) Totals {
	taxable := subtotal.Sub(discount)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	tax := taxable.Mul(TaxRate).Round(2)
	return Totals{
		Subtotal:       subtotal.Round(2),
		DiscountAmount: discount.Round(2),
		DeliveryFee:    deliveryFee.Round(2),
		TipAmount:      tip.Round(2),
		TaxAmount:      tax,
		Total:          taxable.Add(deliveryFee).Add(tip).Add(tax).Round(2),
	}
}
