package model

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		name                         string
		subtotal, discount, fee, tip string
		wantTax, wantTotal           string
	}{
		{"pickup", "17.00", "0", "0", "0", "1.36", "18.36"},
		{"tip is not taxed", "13.00", "0", "0", "2.00", "1.04", "16.04"},
		{"discount before tax", "40.00", "4.00", "4.00", "0", "2.88", "42.88"},
		{"discount larger than subtotal", "5.00", "8.00", "3.00", "0", "0", "3.00"},
		{"tax rounds half up", "10.31", "0", "0", "0", "0.82", "11.13"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(d(tt.subtotal), d(tt.discount), d(tt.fee), d(tt.tip))
			if !got.TaxAmount.Equal(d(tt.wantTax)) {
				t.Errorf("tax = %s, want %s", got.TaxAmount, tt.wantTax)
			}
			if !got.Total.Equal(d(tt.wantTotal)) {
				t.Errorf("total = %s, want %s", got.Total, tt.wantTotal)
			}
		})
	}
}

func TestDiscountApply(t *testing.T) {
	tests := []struct {
		name         string
		code         DiscountCode
		subtotal     string
		want         string
		freeDelivery bool
	}{
		{"percentage", DiscountCode{Type: DiscountPercentage, Value: d("15")}, "33.33", "5.00", false},
		{"fixed", DiscountCode{Type: DiscountFixed, Value: d("5")}, "20", "5", false},
		{"fixed capped at subtotal", DiscountCode{Type: DiscountFixed, Value: d("25")}, "20", "20", false},
		{"free delivery", DiscountCode{Type: DiscountFreeDelivery}, "20", "0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, free := tt.code.Apply(d(tt.subtotal))
			if !got.Equal(d(tt.want)) || free != tt.freeDelivery {
				t.Errorf("Apply = %s %v, want %s %v", got, free, tt.want, tt.freeDelivery)
			}
		})
	}
}

func TestDiscountUsable(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	yesterday := now.AddDate(0, 0, -1)
	tomorrow := now.AddDate(0, 0, 1)
	two := 2

	tests := []struct {
		name string
		code DiscountCode
		want bool
	}{
		{"active", DiscountCode{IsActive: true}, true},
		{"inactive", DiscountCode{}, false},
		{"not started", DiscountCode{IsActive: true, ValidFrom: &tomorrow}, false},
		{"expired", DiscountCode{IsActive: true, ValidUntil: &yesterday}, false},
		{"within window", DiscountCode{IsActive: true, ValidFrom: &yesterday, ValidUntil: &tomorrow}, true},
		{"uses left", DiscountCode{IsActive: true, MaxUses: &two, CurrentUses: 1}, true},
		{"used up", DiscountCode{IsActive: true, MaxUses: &two, CurrentUses: 2}, false},
	}
	for _, tt := range tests {
		if got := tt.code.Usable(now); got != tt.want {
			t.Errorf("%s: Usable = %v, want %v", tt.name, got, tt.want)
		}
	}

	minimum := DiscountCode{MinOrderAmount: decimal.NewNullDecimal(d("25"))}
	if minimum.MeetsMinimum(d("24.99")) || !minimum.MeetsMinimum(d("25")) {
		t.Error("minimum order not enforced")
	}
	if NormalizeDiscountCode(" welcome10 ") != "WELCOME10" {
		t.Error("code not normalized")
	}
}

func TestDeliveryZone(t *testing.T) {
	zones := []DeliveryZone{
		{Name: "Closed", ZipCodes: []string{"97201"}, IsActive: false},
		{
			Name:                  "Downtown",
			ZipCodes:              []string{"97201", "97205"},
			DeliveryFee:           d("4"),
			FreeDeliveryThreshold: decimal.NewNullDecimal(d("75")),
			IsActive:              true,
		},
	}

	zone := MatchDeliveryZone(zones, " 97205-1234 ")
	if zone == nil || zone.Name != "Downtown" {
		t.Fatalf("zone = %+v", zone)
	}
	if got := MatchDeliveryZone(zones, "97201"); got == nil || got.Name != "Downtown" {
		t.Errorf("97201 should match the active zone, got %+v", got)
	}
	if MatchDeliveryZone(zones, "10001") != nil || MatchDeliveryZone(zones, "") != nil {
		t.Error("uncovered zip matched")
	}
	if !zone.FeeFor(d("74.99")).Equal(d("4")) || !zone.FeeFor(d("75")).IsZero() {
		t.Error("free delivery threshold not applied")
	}
}

func TestOrderOwnership(t *testing.T) {
	customer := uuid.New()
	email := "Jamie@Example.com"
	blank := ""

	tests := []struct {
		name  string
		order Order
		want  bool
	}{
		{"customer", Order{CustomerID: &customer}, true},
		{"guest", Order{GuestEmail: &email}, true},
		{"both", Order{CustomerID: &customer, GuestEmail: &email}, false},
		{"neither", Order{}, false},
		{"blank guest email", Order{GuestEmail: &blank}, false},
	}
	for _, tt := range tests {
		if got := tt.order.HasSingleOwner(); got != tt.want {
			t.Errorf("%s: HasSingleOwner = %v, want %v", tt.name, got, tt.want)
		}
	}

	guest := Order{GuestEmail: &email}
	if !guest.MatchesGuestEmail("  jamie@example.COM ") || guest.MatchesGuestEmail("") {
		t.Error("guest email comparison")
	}
	owned := Order{CustomerID: &customer}
	if !owned.OwnedBy(customer) || owned.OwnedBy(uuid.New()) || owned.OwnedBy(uuid.Nil) {
		t.Error("ownership check")
	}
}

func TestLoyaltyPoints(t *testing.T) {
	b := DefaultBusinessSettings()
	if got := b.LoyaltyPointsFor(d("42.99")); got != 42 {
		t.Errorf("points = %d, want 42", got)
	}
	b.LoyaltyPointsPerUSD = 0
	if got := b.LoyaltyPointsFor(d("42.99")); got != 0 {
		t.Errorf("points = %d, want 0", got)
	}
}
