package payment

import (
	"context"
	"fmt"
	"time"

	"bakery_manager/model"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// SignatureTolerance is how old a webhook timestamp may be.
const SignatureTolerance = 300 * time.Second

const MetadataOrderID = "order_id"

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type Stripe struct {
	api           *client.API
	webhookSecret string
	currency      string
}

func NewStripe(cfg StripeConfig) *Stripe {
	api := &client.API{}
	api.Init(cfg.SecretKey, nil)
	return &Stripe{
		api:           api,
		webhookSecret: cfg.WebhookSecret,
		currency:      cfg.Currency,
	}
}

// CreateCheckoutSession opens a hosted checkout page for the order. A discount is
// applied through a single-use coupon.
func (s *Stripe) CreateCheckoutSession(ctx context.Context, req model.CheckoutSessionRequest) (*model.CheckoutSession, error) {
	currency := req.Currency
	if currency == "" {
		currency = s.currency
	}
	orderID := req.OrderID.String()

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(req.SuccessURL),
		CancelURL:         stripe.String(req.CancelURL),
		ClientReferenceID: stripe.String(req.OrderNumber),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: map[string]string{MetadataOrderID: orderID},
		},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(MetadataOrderID, orderID)
	params.AddMetadata("order_number", req.OrderNumber)

	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(ToCents(item.UnitPrice)),
			},
			Quantity: stripe.Int64(item.Quantity),
		})
	}

	if req.Discount.IsPositive() {
		couponParams := &stripe.CouponParams{
			AmountOff:      stripe.Int64(ToCents(req.Discount)),
			Currency:       stripe.String(currency),
			Duration:       stripe.String(string(stripe.CouponDurationOnce)),
			MaxRedemptions: stripe.Int64(1),
			Name:           stripe.String("Order " + req.OrderNumber),
		}
		couponParams.Context = ctx
		coupon, err := s.api.Coupons.New(couponParams)
		if err != nil {
			return nil, fmt.Errorf("create coupon: %w", err)
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{{Coupon: stripe.String(coupon.ID)}}
	}

	session, err := s.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return &model.CheckoutSession{ID: session.ID, URL: session.URL}, nil
}

// ConstructEvent verifies the Stripe-Signature header over the raw body and decodes the event.
func (s *Stripe) ConstructEvent(payload []byte, signature string) (stripe.Event, error) {
	return ConstructEvent(payload, signature, s.webhookSecret)
}

func ConstructEvent(payload []byte, signature, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		Tolerance:                SignatureTolerance,
		IgnoreAPIVersionMismatch: true,
	})
}

// ToCents converts a dollar amount to the smallest currency unit.
func ToCents(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

// FromCents is the inverse of ToCents.
func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}
