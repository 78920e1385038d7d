package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"bakery_manager/constants"
	"bakery_manager/database"
	"bakery_manager/helper"
	"bakery_manager/middleware"
	"bakery_manager/model"
	"bakery_manager/payment"
	"bakery_manager/utils"
	"bakery_manager/validate"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
)

const testWebhookSecret = "whsec_handler_test"

var testJWTSecret = []byte("handler-test-secret")

type mockStore struct {
	mu sync.Mutex

	orders    map[uuid.UUID]*model.Order
	variants  map[uuid.UUID]model.ProductVariant
	slots     map[uuid.UUID]*model.TimeSlot
	zones     []model.DeliveryZone
	codes     map[string]*model.DiscountCode
	customers map[uuid.UUID]*model.Customer
	events    map[string]string
	deleted   []uuid.UUID

	CreateOrderFunc func(order *model.Order) error
}

func newMockStore() *mockStore {
	return &mockStore{
		orders:    map[uuid.UUID]*model.Order{},
		variants:  map[uuid.UUID]model.ProductVariant{},
		slots:     map[uuid.UUID]*model.TimeSlot{},
		codes:     map[string]*model.DiscountCode{},
		customers: map[uuid.UUID]*model.Customer{},
		events:    map[string]string{},
	}
}

func (m *mockStore) addOrder(o *model.Order) *model.Order {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	m.orders[o.ID] = o
	return o
}

func (m *mockStore) order(id uuid.UUID) model.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.orders[id]
}

func (m *mockStore) CreateOrder(_ context.Context, order *model.Order) error {
	if m.CreateOrderFunc != nil {
		if err := m.CreateOrderFunc(order); err != nil {
			return err
		}
	}
	if !order.HasSingleOwner() {
		return model.ErrOrderOwner
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	order.ID = uuid.New()
	stored := *order
	m.orders[order.ID] = &stored
	return nil
}

func (m *mockStore) SetOrderSession(_ context.Context, orderID uuid.UUID, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[orderID].StripeSessionID = &sessionID
	return nil
}

func (m *mockStore) DeleteOrder(_ context.Context, orderID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.orders, orderID)
	m.deleted = append(m.deleted, orderID)
	return nil
}

func (m *mockStore) GetOrder(_ context.Context, orderID uuid.UUID) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockStore) FindOrderByPaymentIntent(_ context.Context, paymentIntentID string) (*model.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripePaymentIntentID != nil && *o.StripePaymentIntentID == paymentIntentID {
			cp := *o
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func cancellable(s model.OrderStatus) bool {
	return slices.Contains(model.CancellableStatuses, s)
}

// update applies fn to the stored order when cond holds, like a conditional UPDATE.
func (m *mockStore) update(orderID uuid.UUID, cond func(*model.Order) bool, fn func(*model.Order)) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok || !cond(o) {
		return false, nil
	}
	fn(o)
	return true, nil
}

// MarkOrderPaid mirrors the store. Only slot capacity is reclaimed, stock is not tracked here.
func (m *mockStore) MarkOrderPaid(_ context.Context, orderID uuid.UUID, paymentIntentID string, at time.Time) (model.PaymentOutcome, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderID]
	if !ok {
		return model.PaymentIgnored, database.ErrNotFound
	}
	if o.PaymentStatus != model.PaymentPending && o.PaymentStatus != model.PaymentFailed {
		return model.PaymentIgnored, nil
	}

	outcome := model.PaymentRecorded
	switch {
	case o.Status == model.StatusCancelled:
		outcome = model.PaymentOnCancelled
	case o.PaymentStatus == model.PaymentFailed && o.TimeSlotID != nil && o.SlotReleasedAt != nil:
		slot := m.slots[*o.TimeSlotID]
		if slot == nil || slot.IsFull() {
			outcome = model.PaymentOnCancelled
			o.Status = model.StatusCancelled
			o.CancelledAt = &at
		} else {
			slot.CurrentOrders++
			o.SlotReleasedAt = nil
		}
	}
	if outcome == model.PaymentRecorded && o.Status == model.StatusReceived {
		outcome = model.PaymentConfirmed
		o.Status = model.StatusConfirmed
		o.ConfirmedAt = &at
	}

	o.PaymentStatus = model.PaymentPaid
	if paymentIntentID != "" {
		o.StripePaymentIntentID = &paymentIntentID
	}
	return outcome, nil
}

func (m *mockStore) FailOrderPayment(_ context.Context, orderID uuid.UUID) (bool, error) {
	return m.update(orderID,
		func(o *model.Order) bool {
			return o.PaymentStatus == model.PaymentPending && cancellable(o.Status)
		},
		func(o *model.Order) { o.PaymentStatus = model.PaymentFailed })
}

func (m *mockStore) CancelUnpaidOrder(_ context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	return m.update(orderID,
		func(o *model.Order) bool {
			unpaid := o.PaymentStatus == model.PaymentPending || o.PaymentStatus == model.PaymentFailed
			return unpaid && cancellable(o.Status)
		},
		func(o *model.Order) {
			o.Status = model.StatusCancelled
			o.PaymentStatus = model.PaymentFailed
			o.CancelledAt = &at
		})
}

func (m *mockStore) RefundOrder(_ context.Context, orderID uuid.UUID) (bool, error) {
	return m.update(orderID,
		func(o *model.Order) bool { return o.PaymentStatus != model.PaymentRefunded },
		func(o *model.Order) {
			o.Status = model.StatusRefunded
			o.PaymentStatus = model.PaymentRefunded
		})
}

func (m *mockStore) CancelOrder(_ context.Context, orderID uuid.UUID, at time.Time) (bool, error) {
	return m.update(orderID,
		func(o *model.Order) bool { return cancellable(o.Status) },
		func(o *model.Order) {
			o.Status = model.StatusCancelled
			o.CancelledAt = &at
		})
}

func (m *mockStore) UpdateOrderStatus(_ context.Context, orderID uuid.UUID, from, to model.OrderStatus, _ map[string]any) (bool, error) {
	return m.update(orderID,
		func(o *model.Order) bool { return o.Status == from },
		func(o *model.Order) { o.Status = to })
}

func (m *mockStore) ListOrders(context.Context, model.OrderFilter) ([]model.Order, int64, error) {
	return nil, 0, nil
}

func (m *mockStore) ListCustomerOrders(_ context.Context, customerID uuid.UUID, _ model.Pagination) ([]model.Order, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Order
	for _, o := range m.orders {
		if o.OwnedBy(customerID) {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (m *mockStore) OrderHistory(context.Context, uuid.UUID) ([]model.OrderStatusHistory, error) {
	return nil, nil
}

func (m *mockStore) WebhookEventProcessed(_ context.Context, eventID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.events[eventID]
	return ok, nil
}

func (m *mockStore) RecordWebhookEvent(_ context.Context, eventID, eventType string, _ time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events[eventID] = eventType
	return nil
}

func (m *mockStore) GetVariants(_ context.Context, ids []uuid.UUID) ([]model.ProductVariant, error) {
	var out []model.ProductVariant
	for _, id := range ids {
		if v, ok := m.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *mockStore) ListActiveProducts(context.Context) ([]model.Product, error) {
	return nil, nil
}

func (m *mockStore) ProductSlugExists(context.Context, string) (bool, error) {
	return false, nil
}

func (m *mockStore) CreateProduct(context.Context, *model.Product) error {
	return nil
}

func (m *mockStore) FindTimeSlot(_ context.Context, date utils.CustomDate, start string) (*model.TimeSlot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.slots {
		if s.Date.String() == date.String() && s.StartTime == start && s.IsAvailable {
			cp := *s
			return &cp, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockStore) ReserveTimeSlot(_ context.Context, slotID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.slots[slotID]
	if s == nil || s.IsFull() {
		return false, nil
	}
	s.CurrentOrders++
	return true, nil
}

func (m *mockStore) ReleaseTimeSlot(_ context.Context, slotID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s := m.slots[slotID]; s != nil && s.CurrentOrders > 0 {
		s.CurrentOrders--
	}
	return nil
}

func (m *mockStore) ListTimeSlots(context.Context, utils.CustomDate) ([]model.TimeSlot, error) {
	return nil, nil
}

func (m *mockStore) CreateTimeSlot(context.Context, *model.TimeSlot) error {
	return nil
}

func (m *mockStore) ActiveDeliveryZones(context.Context) ([]model.DeliveryZone, error) {
	return m.zones, nil
}

func (m *mockStore) CreateDeliveryZone(context.Context, *model.DeliveryZone) error {
	return nil
}

func (m *mockStore) FindDiscountCode(_ context.Context, code string) (*model.DiscountCode, error) {
	d, ok := m.codes[model.NormalizeDiscountCode(code)]
	if !ok {
		return nil, database.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *mockStore) CreateDiscountCode(context.Context, *model.DiscountCode) error {
	return nil
}

func (m *mockStore) FindCustomerByEmail(_ context.Context, email string) (*model.Customer, error) {
	for _, c := range m.customers {
		if c.Email == email {
			return c, nil
		}
	}
	return nil, database.ErrNotFound
}

func (m *mockStore) GetCustomer(_ context.Context, id uuid.UUID) (*model.Customer, error) {
	if c, ok := m.customers[id]; ok {
		return c, nil
	}
	return nil, database.ErrNotFound
}

func (m *mockStore) CreateCustomer(_ context.Context, customer *model.Customer) error {
	if _, err := m.FindCustomerByEmail(context.Background(), customer.Email); err == nil {
		return database.ErrDuplicate
	}
	customer.ID = uuid.New()
	m.customers[customer.ID] = customer
	return nil
}

type mockGateway struct {
	requests []model.CheckoutSessionRequest

	CreateFunc func(req model.CheckoutSessionRequest) (*model.CheckoutSession, error)
}

func (g *mockGateway) CreateCheckoutSession(_ context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error) {
	g.requests = append(g.requests, req)
	if g.CreateFunc != nil {
		return g.CreateFunc(req)
	}
	return &model.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.test/cs_test_1"}, nil
}

func (g *mockGateway) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return payment.ConstructEvent(payload, signature, testWebhookSecret)
}

type recordingEffects struct {
	mu    sync.Mutex
	tasks []model.OutboxTask
}

func (e *recordingEffects) Run(_ context.Context, tasks ...model.OutboxTask) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, tasks...)
}

func (e *recordingEffects) kinds() []model.OutboxKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []model.OutboxKind
	for _, t := range e.tasks {
		out = append(out, t.Kind)
	}
	return out
}

func (e *recordingEffects) count(kind model.OutboxKind) int {
	n := 0
	for _, k := range e.kinds() {
		if k == kind {
			n++
		}
	}
	return n
}

// history returns the notes of the recorded history tasks, in order.
func (e *recordingEffects) history() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, t := range e.tasks {
		if t.Kind != model.TaskAppendHistory {
			continue
		}
		p := t.Payload.Data()
		note := ""
		if p.Notes != nil {
			note = *p.Notes
		}
		out = append(out, string(p.Status)+": "+note)
	}
	return out
}

type recordingMailer struct {
	mu            sync.Mutex
	confirmations []utils.OrderEmailData
	updates       []utils.StatusEmailData
}

func (m *recordingMailer) SendOrderConfirmation(_ string, data utils.OrderEmailData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.confirmations = append(m.confirmations, data)
}

func (m *recordingMailer) SendStatusUpdate(_ string, data utils.StatusEmailData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updates = append(m.updates, data)
}

type staticSettings struct {
	business model.BusinessSettings
}

func (s *staticSettings) Business(context.Context) (model.BusinessSettings, error) {
	return s.business, nil
}

func (s *staticSettings) UpdateBusiness(_ context.Context, b model.BusinessSettings) error {
	s.business = b
	return nil
}

type fixture struct {
	h        *Handler
	store    *mockStore
	gateway  *mockGateway
	effects  *recordingEffects
	mailer   *recordingMailer
	settings *staticSettings
}

func newFixture() *fixture {
	f := &fixture{
		store:    newMockStore(),
		gateway:  &mockGateway{},
		effects:  &recordingEffects{},
		mailer:   &recordingMailer{},
		settings: &staticSettings{business: model.DefaultBusinessSettings()},
	}
	f.h = &Handler{
		Store:     f.store,
		Payments:  f.gateway,
		Mailer:    f.mailer,
		Effects:   f.effects,
		Settings:  f.settings,
		JWTSecret: testJWTSecret,
		AppURL:    "https://bakery.test",
		Currency:  "usd",
		Log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	return f
}

func (f *fixture) guestOrder(status model.OrderStatus, email string) *model.Order {
	return f.store.addOrder(&model.Order{
		OrderNumber:     "HS-2026-ABC123",
		GuestEmail:      &email,
		ContactName:     "Jamie Rivera",
		Status:          status,
		PaymentStatus:   model.PaymentPending,
		FulfillmentType: model.FulfillmentPickup,
		Total:           decimal.RequireFromString("18.36"),
	})
}

func (f *fixture) customerOrder(status model.OrderStatus, customerID uuid.UUID) *model.Order {
	return f.store.addOrder(&model.Order{
		OrderNumber:     "HS-2026-DEF456",
		CustomerID:      &customerID,
		ContactName:     "Sam Lee",
		Status:          status,
		PaymentStatus:   model.PaymentPending,
		FulfillmentType: model.FulfillmentDelivery,
		Total:           decimal.RequireFromString("42.10"),
	})
}

func bearer(t *testing.T, customerID uuid.UUID, role string) string {
	t.Helper()
	tok, err := helper.GenerateAccessToken(testJWTSecret, model.TokenClaim{
		CustomerId: customerID,
		Email:      "someone@example.com",
		Role:       role,
	})
	if err != nil {
		t.Fatal(err)
	}
	return "Bearer " + tok
}

func customerToken(t *testing.T, customerID uuid.UUID) string {
	return bearer(t, customerID, constants.ROLE_CUSTOMER)
}

type response struct {
	Status  int
	Message string
	Data    json.RawMessage
}

func do(t *testing.T, app *fiber.App, method, path, body, auth string) response {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if auth != "" {
		req.Header.Set(fiber.HeaderAuthorization, auth)
	}
	return send(t, app, req)
}

func send(t *testing.T, app *fiber.App, req *http.Request) response {
	t.Helper()
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &body); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return response{Status: resp.StatusCode, Message: body.Message, Data: body.Data}
}

func (f *fixture) app() *fiber.App {
	app := fiber.New()
	optionalJWT := middleware.OptionalJWT(testJWTSecret)

	app.Post("/api/checkout", optionalJWT, validate.Checkout(), f.h.Checkout)
	app.Post("/api/webhooks/stripe", f.h.StripeWebhook)
	app.Get("/api/orders/:id", optionalJWT, validate.GetByID("id"), f.h.GetOrder)
	app.Post("/api/orders/:id/cancel", optionalJWT, validate.GetByID("id"), validate.CancelOrder(), f.h.CancelOrder)
	app.Patch("/api/admin/orders/:id/status",
		middleware.Protected(testJWTSecret),
		middleware.AdminOnly(),
		validate.GetByID("id"),
		validate.UpdateOrderStatus(),
		f.h.AdminUpdateOrderStatus,
	)
	app.Post("/api/auth/register", validate.Body[model.RegisterCustomerInput](), f.h.Register)
	app.Post("/api/auth/login", validate.Body[model.LoginInput](), f.h.Login)
	app.Get("/api/discount-codes/:code", f.h.PreviewDiscountCode)
	app.Get("/api/delivery-zones/lookup", f.h.LookupDeliveryZone)
	return app
}
