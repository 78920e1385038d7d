package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"bakery_manager/constants"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var deliveryDate = time.Now().AddDate(0, 0, 3).Format(utils.DateLayout)

func (f *fixture) addVariant(name, price string, stock *int) uuid.UUID {
	id := uuid.New()
	f.store.variants[id] = model.ProductVariant{
		DTO:           model.DTO{ID: id},
		Name:          "Regular",
		Price:         decimal.RequireFromString(price),
		IsAvailable:   true,
		StockQuantity: stock,
		Product:       &model.Product{Name: name, IsActive: true},
	}
	return id
}

func (f *fixture) addSlot(t *testing.T, start string, current, max int) *model.TimeSlot {
	t.Helper()
	date, err := utils.ParseDate(deliveryDate)
	if err != nil {
		t.Fatal(err)
	}
	slot := &model.TimeSlot{
		DTO:           model.DTO{ID: uuid.New()},
		Date:          date,
		StartTime:     start,
		EndTime:       "11:00",
		MaxOrders:     max,
		CurrentOrders: current,
		IsAvailable:   true,
	}
	f.store.slots[slot.ID] = slot
	return slot
}

func checkoutBody(items string, extra string) string {
	return fmt.Sprintf(`{
		"items": %s,
		"contact": {"name": "Jamie Rivera", "email": " Jamie@Example.com ", "phone": "555-0100"},
		"fulfillmentType": "pickup",
		"deliveryDate": %q,
		"deliveryWindow": "9:00 AM - 11:00 AM"%s
	}`, items, deliveryDate, extra)
}

func TestCheckoutRejectsBadInput(t *testing.T) {
	f := newFixture()
	app := f.app()
	variant := f.addVariant("Sourdough Loaf", "8.50", nil)
	item := fmt.Sprintf(`[{"variantId": %q, "quantity": 1}]`, variant)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"empty cart", checkoutBody(`[]`, ""), constants.CART_EMPTY},
		{"missing contact email", strings.Replace(checkoutBody(item, ""), `"email": " Jamie@Example.com ", `, "", 1), "Missing required field: contact.email"},
		{"delivery without address", strings.Replace(checkoutBody(item, ""), `"pickup"`, `"delivery"`, 1), constants.DELIVERY_ADDRESS_NEEDED},
		{"negative tip", checkoutBody(item, `, "tipAmount": -1`), constants.INVALID_TIP},
		{"unparsable window", strings.Replace(checkoutBody(item, ""), "9:00 AM - 11:00 AM", "whenever", 1), constants.INVALID_DELIVERY_TIME},
		{"past date", strings.Replace(checkoutBody(item, ""), deliveryDate, "2020-01-01", 1), constants.INVALID_DELIVERY_DATE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := do(t, app, fiber.MethodPost, "/api/checkout", tt.body, "")
			if res.Status != fiber.StatusBadRequest {
				t.Fatalf("status = %d, want 400", res.Status)
			}
			if res.Message != tt.want {
				t.Errorf("message = %q, want %q", res.Message, tt.want)
			}
		})
	}
	if len(f.store.orders) != 0 {
		t.Errorf("no order may be created, got %d", len(f.store.orders))
	}
}

func TestCheckoutPickupTotals(t *testing.T) {
	f := newFixture()
	app := f.app()
	variant := f.addVariant("Sourdough Loaf", "8.50", nil)
	slot := f.addSlot(t, "09:00", 0, 10)

	body := checkoutBody(fmt.Sprintf(`[{"variantId": %q, "quantity": 2, "price": 1.00}]`, variant), "")
	res := do(t, app, fiber.MethodPost, "/api/checkout", body, "")
	if res.Status != fiber.StatusOK {
		t.Fatalf("status = %d (%s)", res.Status, res.Message)
	}

	var result model.CheckoutResult
	if err := json.Unmarshal(res.Data, &result); err != nil {
		t.Fatal(err)
	}
	if !result.Total.Equal(decimal.RequireFromString("18.36")) {
		t.Errorf("total = %s, want 18.36", result.Total)
	}
	if result.URL == "" || result.SessionID != "cs_test_1" {
		t.Errorf("result = %+v", result)
	}
	if !regexp.MustCompile(`^HS-\d{4}-[0-9A-F]{6}$`).MatchString(result.OrderNumber) {
		t.Errorf("order number = %q", result.OrderNumber)
	}

	order := f.store.order(result.OrderID)
	if order.Status != model.StatusReceived || order.PaymentStatus != model.PaymentPending {
		t.Errorf("order status = %s/%s", order.Status, order.PaymentStatus)
	}
	if !order.Subtotal.Equal(decimal.RequireFromString("17.00")) || !order.TaxAmount.Equal(decimal.RequireFromString("1.36")) {
		t.Errorf("subtotal = %s tax = %s", order.Subtotal, order.TaxAmount)
	}
	if !order.DeliveryFee.IsZero() {
		t.Errorf("pickup delivery fee = %s", order.DeliveryFee)
	}
	if order.GuestEmail == nil || *order.GuestEmail != "jamie@example.com" || order.CustomerID != nil {
		t.Errorf("owner = %v / %v", order.GuestEmail, order.CustomerID)
	}
	if order.TimeSlotID == nil || *order.TimeSlotID != slot.ID || slot.CurrentOrders != 1 {
		t.Errorf("slot not reserved: %v current=%d", order.TimeSlotID, slot.CurrentOrders)
	}
	if order.StripeSessionID == nil || *order.StripeSessionID != "cs_test_1" {
		t.Errorf("session id not stored")
	}

	req := f.gateway.requests[0]
	if len(req.LineItems) != 2 || req.LineItems[1].Name != "Tax" {
		t.Fatalf("line items = %+v", req.LineItems)
	}
	if !req.LineItems[0].UnitPrice.Equal(decimal.RequireFromString("8.50")) {
		t.Errorf("cart price must come from the catalog, got %s", req.LineItems[0].UnitPrice)
	}
	if !strings.Contains(req.SuccessURL, result.OrderID.String()) || !strings.Contains(req.CancelURL, result.OrderID.String()) {
		t.Errorf("urls must embed the order id: %s %s", req.SuccessURL, req.CancelURL)
	}
	if got := f.effects.history(); len(got) != 1 || got[0] != "received: Order placed" {
		t.Errorf("history = %v", got)
	}
}

func TestCheckoutRegisteredCustomerOwnsOrder(t *testing.T) {
	f := newFixture()
	app := f.app()
	variant := f.addVariant("Croissant", "3.25", nil)
	customerID := uuid.New()

	body := checkoutBody(fmt.Sprintf(`[{"variantId": %q, "quantity": 4}]`, variant), `, "tipAmount": 2`)
	res := do(t, app, fiber.MethodPost, "/api/checkout", body, customerToken(t, customerID))
	if res.Status != fiber.StatusOK {
		t.Fatalf("status = %d (%s)", res.Status, res.Message)
	}
	var result model.CheckoutResult
	if err := json.Unmarshal(res.Data, &result); err != nil {
		t.Fatal(err)
	}
	order := f.store.order(result.OrderID)
	if order.CustomerID == nil || *order.CustomerID != customerID || order.GuestEmail != nil {
		t.Errorf("owner = %v / %v", order.CustomerID, order.GuestEmail)
	}
	// 13.00 + 1.04 tax + 2.00 tip
	if !order.Total.Equal(decimal.RequireFromString("16.04")) {
		t.Errorf("total = %s", order.Total)
	}
	if order.TimeSlotID != nil {
		t.Errorf("no slot exists, order must proceed unreserved")
	}
}

func TestCheckoutFullSlot(t *testing.T) {
	f := newFixture()
	app := f.app()
	variant := f.addVariant("Sourdough Loaf", "8.50", nil)
	slot := f.addSlot(t, "09:00", 10, 10)

	body := checkoutBody(fmt.Sprintf(`[{"variantId": %q, "quantity": 1}]`, variant), "")
	res := do(t, app, fiber.MethodPost, "/api/checkout", body, "")
	if res.Status != fiber.StatusBadRequest || res.Message != "Selected time slot is full." {
		t.Fatalf("got %d %q", res.Status, res.Message)
	}
	if len(f.store.orders) != 0 || slot.CurrentOrders != 10 {
		t.Errorf("orders=%d current=%d", len(f.store.orders), slot.CurrentOrders)
	}
	if len(f.gateway.requests) != 0 {
		t.Errorf("no payment session may be requested")
	}
}

func TestCheckoutUnavailableItems(t *testing.T) {
	f := newFixture()
	app := f.app()
	ok := f.addVariant("Sourdough Loaf", "8.50", nil)
	soldOut := f.addVariant("Cinnamon Roll", "4.00", utils.Ptr(1))
	off := f.addVariant("Baguette", "3.00", nil)
	v := f.store.variants[off]
	v.IsAvailable = false
	f.store.variants[off] = v

	items := fmt.Sprintf(`[
		{"variantId": %q, "quantity": 1},
		{"variantId": %q, "quantity": 2},
		{"variantId": %q, "quantity": 1},
		{"variantId": %q, "quantity": 1, "name": "Ghost Cake"}
	]`, ok, soldOut, off, uuid.New())
	res := do(t, app, fiber.MethodPost, "/api/checkout", checkoutBody(items, ""), "")

	if res.Status != fiber.StatusBadRequest {
		t.Fatalf("status = %d", res.Status)
	}
	want := fmt.Sprintf(constants.ITEMS_UNAVAILABLE, "Cinnamon Roll, Baguette, Ghost Cake")
	if res.Message != want {
		t.Errorf("message = %q, want %q", res.Message, want)
	}
	if len(f.store.orders) != 0 {
		t.Errorf("no partial order may be created")
	}
}

func TestCheckoutDeliveryZoneAndDiscount(t *testing.T) {
	f := newFixture()
	app := f.app()
	variant := f.addVariant("Birthday Cake", "40.00", nil)
	f.store.zones = []model.DeliveryZone{{
		Name:         "Downtown",
		ZipCodes:     []string{"97201"},
		MinimumOrder: decimal.RequireFromString("25.00"),
		DeliveryFee:  decimal.RequireFromString("4.00"),
		IsActive:     true,
	}}
	f.store.codes["WELCOME10"] = &model.DiscountCode{
		Code:     "WELCOME10",
		Type:     model.DiscountPercentage,
		Value:    decimal.NewFromInt(10),
		IsActive: true,
	}

	address := `, "deliveryAddress": {"street": "1 Main St", "city": "Portland", "state": "OR", "zipCode": "97201-1234"}, "discountCode": " welcome10 "`
	body := strings.Replace(checkoutBody(fmt.Sprintf(`[{"variantId": %q, "quantity": 1}]`, variant), address), `"pickup"`, `"delivery"`, 1)
	res := do(t, app, fiber.MethodPost, "/api/checkout", body, "")
	if res.Status != fiber.StatusOK {
		t.Fatalf("status = %d (%s)", res.Status, res.Message)
	}
	var result model.CheckoutResult
	if err := json.Unmarshal(res.Data, &result); err != nil {
		t.Fatal(err)
	}
	order := f.store.order(result.OrderID)

	// 40.00 - 4.00 discount, 2.88 tax on 36.00, 4.00 delivery
	if !order.DiscountAmount.Equal(decimal.RequireFromString("4.00")) ||
		!order.TaxAmount.Equal(decimal.RequireFromString("2.88")) ||
		!order.Total.Equal(decimal.RequireFromString("42.88")) {
		t.Errorf("discount=%s tax=%s total=%s", order.DiscountAmount, order.TaxAmount, order.Total)
	}
	if order.DeliveryZoneID == nil || order.DiscountCode == nil || *order.DiscountCode != "WELCOME10" {
		t.Errorf("zone=%v code=%v", order.DeliveryZoneID, order.DiscountCode)
	}
	if addr := order.DeliveryAddress.Data(); addr == nil || addr.City != "Portland" {
		t.Errorf("address = %+v", addr)
	}
	if !f.gateway.requests[0].Discount.Equal(decimal.RequireFromString("4.00")) {
		t.Errorf("gateway discount = %s", f.gateway.requests[0].Discount)
	}
}

func TestCheckoutCompensatesWhenPaymentSessionFails(t *testing.T) {
	f := newFixture()
	app := f.app()
	variant := f.addVariant("Sourdough Loaf", "8.50", nil)
	f.addSlot(t, "09:00", 0, 10)
	f.gateway.CreateFunc = func(model.CheckoutSessionRequest) (*model.CheckoutSession, error) {
		return nil, errors.New("stripe unavailable")
	}

	body := checkoutBody(fmt.Sprintf(`[{"variantId": %q, "quantity": 1}]`, variant), "")
	res := do(t, app, fiber.MethodPost, "/api/checkout", body, "")
	if res.Status != fiber.StatusInternalServerError || res.Message != constants.PAYMENT_SESSION_FAILED {
		t.Fatalf("got %d %q", res.Status, res.Message)
	}
	if len(f.store.orders) != 0 || len(f.store.deleted) != 1 {
		t.Errorf("order must be deleted, orders=%d deleted=%d", len(f.store.orders), len(f.store.deleted))
	}
}
