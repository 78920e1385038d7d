package handler

import (
	"context"
	"log/slog"
	"time"

	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
)

type OrderStore interface {
	CreateOrder(ctx context.Context, order *model.Order) error
	SetOrderSession(ctx context.Context, orderID uuid.UUID, sessionID string) error
	DeleteOrder(ctx context.Context, orderID uuid.UUID) error
	GetOrder(ctx context.Context, orderID uuid.UUID) (*model.Order, error)
	FindOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*model.Order, error)
	MarkOrderPaid(ctx context.Context, orderID uuid.UUID, paymentIntentID string, at time.Time) (model.PaymentOutcome, error)
	FailOrderPayment(ctx context.Context, orderID uuid.UUID) (bool, error)
	CancelUnpaidOrder(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	RefundOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID, at time.Time) (bool, error)
	UpdateOrderStatus(ctx context.Context, orderID uuid.UUID, from, to model.OrderStatus, extra map[string]any) (bool, error)
	ListOrders(ctx context.Context, filter model.OrderFilter) ([]model.Order, int64, error)
	ListCustomerOrders(ctx context.Context, customerID uuid.UUID, p model.Pagination) ([]model.Order, int64, error)
	OrderHistory(ctx context.Context, orderID uuid.UUID) ([]model.OrderStatusHistory, error)
	WebhookEventProcessed(ctx context.Context, eventID string) (bool, error)
	RecordWebhookEvent(ctx context.Context, eventID, eventType string, at time.Time) error
}

type CatalogStore interface {
	GetVariants(ctx context.Context, ids []uuid.UUID) ([]model.ProductVariant, error)
	ListActiveProducts(ctx context.Context) ([]model.Product, error)
	ProductSlugExists(ctx context.Context, slug string) (bool, error)
	CreateProduct(ctx context.Context, product *model.Product) error
	FindTimeSlot(ctx context.Context, date utils.CustomDate, start string) (*model.TimeSlot, error)
	ReserveTimeSlot(ctx context.Context, slotID uuid.UUID) (bool, error)
	ReleaseTimeSlot(ctx context.Context, slotID uuid.UUID) error
	ListTimeSlots(ctx context.Context, date utils.CustomDate) ([]model.TimeSlot, error)
	CreateTimeSlot(ctx context.Context, slot *model.TimeSlot) error
	ActiveDeliveryZones(ctx context.Context) ([]model.DeliveryZone, error)
	CreateDeliveryZone(ctx context.Context, zone *model.DeliveryZone) error
	FindDiscountCode(ctx context.Context, code string) (*model.DiscountCode, error)
	CreateDiscountCode(ctx context.Context, discount *model.DiscountCode) error
}

type CustomerStore interface {
	FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error)
	GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error)
	CreateCustomer(ctx context.Context, customer *model.Customer) error
}

type Store interface {
	OrderStore
	CatalogStore
	CustomerStore
}

type PaymentGateway interface {
	CreateCheckoutSession(ctx context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error)
	ConstructEvent(payload []byte, signature string) (stripe.Event, error)
}

// Mailer sends notifications without blocking the caller.
type Mailer interface {
	SendOrderConfirmation(to string, data utils.OrderEmailData)
	SendStatusUpdate(to string, data utils.StatusEmailData)
}

// Effects runs best-effort secondary writes; failures are retried out of band.
type Effects interface {
	Run(ctx context.Context, tasks ...model.OutboxTask)
}

type Events interface {
	PublishStatus(ctx context.Context, event model.OrderStatusEvent) error
	SubscribeStatus(ctx context.Context, orderID uuid.UUID) (<-chan []byte, func() error, error)
}

type Settings interface {
	Business(ctx context.Context) (model.BusinessSettings, error)
	UpdateBusiness(ctx context.Context, b model.BusinessSettings) error
}

// Handler carries the dependencies of every HTTP endpoint. Events may be nil.
type Handler struct {
	Store     Store
	Payments  PaymentGateway
	Mailer    Mailer
	Effects   Effects
	Events    Events
	Settings  Settings
	JWTSecret []byte
	AppURL    string
	Currency  string
	Log       *slog.Logger
	Now       func() time.Time
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *Handler) publish(ctx context.Context, order *model.Order) {
	if h.Events == nil {
		return
	}
	event := model.OrderStatusEvent{
		OrderID:       order.ID,
		OrderNumber:   order.OrderNumber,
		Status:        order.Status,
		StatusLabel:   order.Status.Label(),
		PaymentStatus: order.PaymentStatus,
		At:            h.now(),
	}
	if err := h.Events.PublishStatus(ctx, event); err != nil {
		h.Log.Warn("publish order status", "order_id", order.ID, "err", err)
	}
}

func (h *Handler) trackingLink(order *model.Order) string {
	return h.AppURL + "/orders/" + order.ID.String()
}
