package model

import (
	"errors"
	"strings"
	"time"

	"bakery_manager/utils"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrOrderOwner = errors.New("order must have exactly one of customer id or guest email")

type Address struct {
	Street    string `json:"street"`
	Apartment string `json:"apartment,omitempty"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
}

type Order struct {
	DTO
	OrderNumber string `gorm:"uniqueIndex;size:32;not null" json:"orderNumber"`

	CustomerID   *uuid.UUID `gorm:"type:uuid;index" json:"customerId,omitempty"`
	Customer     *Customer  `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	GuestEmail   *string    `gorm:"size:255;index" json:"guestEmail,omitempty"`
	GuestPhone   *string    `gorm:"size:32" json:"guestPhone,omitempty"`
	ContactName  string     `gorm:"size:255" json:"contactName"`
	ContactPhone string     `gorm:"size:32" json:"contactPhone"`

	Status          OrderStatus     `gorm:"type:varchar(32);not null;default:received;index" json:"status"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(16);not null;default:pending" json:"paymentStatus"`
	FulfillmentType FulfillmentType `gorm:"type:varchar(16);not null" json:"fulfillmentType"`

	Subtotal       decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"subtotal"`
	DeliveryFee    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"deliveryFee"`
	TaxAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"taxAmount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"discountAmount"`
	TipAmount      decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"tipAmount"`
	Total          decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0" json:"total"`
	DiscountCode   *string         `gorm:"size:64" json:"discountCode,omitempty"`

	TimeSlotID      *uuid.UUID                   `gorm:"type:uuid;index" json:"timeSlotId,omitempty"`
	DeliveryZoneID  *uuid.UUID                   `gorm:"type:uuid" json:"deliveryZoneId,omitempty"`
	DeliveryDate    utils.CustomDate             `gorm:"type:date" json:"deliveryDate"`
	DeliveryWindow  string                       `gorm:"size:64" json:"deliveryWindow"`
	DeliveryAddress datatypes.JSONType[*Address] `gorm:"type:jsonb" json:"deliveryAddress"`

	Notes         *string `gorm:"type:text" json:"notes,omitempty"`
	InternalNotes *string `gorm:"type:text" json:"-"`

	StripeSessionID       *string `gorm:"size:255;index" json:"-"`
	StripePaymentIntentID *string `gorm:"size:255;index" json:"-"`

	ConfirmedAt         *time.Time `json:"confirmedAt,omitempty"`
	CompletedAt         *time.Time `json:"completedAt,omitempty"`
	CancelledAt         *time.Time `json:"cancelledAt,omitempty"`
	SlotReleasedAt      *time.Time `json:"-"`
	InventoryRestoredAt *time.Time `json:"-"`

	Items []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if !o.HasSingleOwner() {
		return ErrOrderOwner
	}
	return o.DTO.BeforeCreate(tx)
}

// HasSingleOwner reports whether exactly one of customer id and guest email is set.
func (o *Order) HasSingleOwner() bool {
	return (o.CustomerID != nil) != (o.GuestEmail != nil && *o.GuestEmail != "")
}

func (o *Order) IsGuest() bool {
	return o.CustomerID == nil
}

// ContactEmail is where notifications for the order go.
func (o *Order) ContactEmail() string {
	if o.GuestEmail != nil {
		return *o.GuestEmail
	}
	if o.Customer != nil {
		return o.Customer.Email
	}
	return ""
}

// MatchesGuestEmail compares a submitted email with the guest email, ignoring case and spaces.
func (o *Order) MatchesGuestEmail(email string) bool {
	if o.GuestEmail == nil {
		return false
	}
	submitted := NormalizeEmail(email)
	return submitted != "" && submitted == NormalizeEmail(*o.GuestEmail)
}

func (o *Order) OwnedBy(customerID uuid.UUID) bool {
	return o.CustomerID != nil && customerID != uuid.Nil && *o.CustomerID == customerID
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type OrderItem struct {
	DTO
	OrderID             uuid.UUID       `gorm:"type:uuid;not null;index" json:"orderId"`
	VariantID           uuid.UUID       `gorm:"type:uuid;not null" json:"variantId"`
	ProductName         string          `gorm:"size:255;not null" json:"productName"`
	VariantName         string          `gorm:"size:255" json:"variantName"`
	Quantity            int             `gorm:"not null" json:"quantity"`
	UnitPrice           decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice          decimal.Decimal `gorm:"type:decimal(10,2);not null" json:"totalPrice"`
	SpecialInstructions *string         `gorm:"type:text" json:"specialInstructions,omitempty"`
}

func (i OrderItem) DisplayName() string {
	if i.VariantName == "" {
		return i.ProductName
	}
	return i.ProductName + " (" + i.VariantName + ")"
}

type OrderStatusHistory struct {
	ID        uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID   uuid.UUID   `gorm:"type:uuid;not null;index" json:"orderId"`
	Status    OrderStatus `gorm:"type:varchar(32);not null" json:"status"`
	Notes     *string     `gorm:"type:text" json:"notes,omitempty"`
	ChangedBy *uuid.UUID  `gorm:"type:uuid" json:"changedBy,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (OrderStatusHistory) TableName() string {
	return "order_status_history"
}

func (h *OrderStatusHistory) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}

type OrderFilter struct {
	Pagination
	Status        string `query:"status"`
	PaymentStatus string `query:"paymentStatus"`
	Date          string `query:"date"`
}

// OrderStatusEvent is published whenever an order changes status.
type OrderStatusEvent struct {
	OrderID       uuid.UUID     `json:"orderId"`
	OrderNumber   string        `json:"orderNumber"`
	Status        OrderStatus   `json:"status"`
	StatusLabel   string        `json:"statusLabel"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	At            time.Time     `json:"at"`
}
