package model

type OrderStatus string

const (
	StatusReceived       OrderStatus = "received"
	StatusConfirmed      OrderStatus = "confirmed"
	StatusBaking         OrderStatus = "baking"
	StatusDecorating     OrderStatus = "decorating"
	StatusQualityCheck   OrderStatus = "quality_check"
	StatusReady          OrderStatus = "ready"
	StatusOutForDelivery OrderStatus = "out_for_delivery"
	StatusDelivered      OrderStatus = "delivered"
	StatusPickedUp       OrderStatus = "picked_up"
	StatusCancelled      OrderStatus = "cancelled"
	StatusRefunded       OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentRefunded PaymentStatus = "refunded"
)

type FulfillmentType string

const (
	FulfillmentPickup   FulfillmentType = "pickup"
	FulfillmentDelivery FulfillmentType = "delivery"
)

var deliveryFlow = []OrderStatus{
	StatusReceived, StatusConfirmed, StatusBaking, StatusDecorating,
	StatusQualityCheck, StatusReady, StatusOutForDelivery, StatusDelivered,
}

var pickupFlow = []OrderStatus{
	StatusReceived, StatusConfirmed, StatusBaking, StatusDecorating,
	StatusQualityCheck, StatusReady, StatusPickedUp,
}

// AllOrderStatuses lists every status in display order.
var AllOrderStatuses = []OrderStatus{
	StatusReceived, StatusConfirmed, StatusBaking, StatusDecorating, StatusQualityCheck,
	StatusReady, StatusOutForDelivery, StatusDelivered, StatusPickedUp, StatusCancelled, StatusRefunded,
}

func (s OrderStatus) Valid() bool {
	switch s {
	case StatusReceived, StatusConfirmed, StatusBaking, StatusDecorating, StatusQualityCheck,
		StatusReady, StatusOutForDelivery, StatusDelivered, StatusPickedUp, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

func (s OrderStatus) Label() string {
	switch s {
	case StatusReceived:
		return "Order Received"
	case StatusConfirmed:
		return "Confirmed"
	case StatusBaking:
		return "Baking"
	case StatusDecorating:
		return "Decorating"
	case StatusQualityCheck:
		return "Quality Check"
	case StatusReady:
		return "Ready"
	case StatusOutForDelivery:
		return "Out for Delivery"
	case StatusDelivered:
		return "Delivered"
	case StatusPickedUp:
		return "Picked Up"
	case StatusCancelled:
		return "Cancelled"
	case StatusRefunded:
		return "Refunded"
	}
	return string(s)
}

// IsTerminal reports whether the order lifecycle has ended.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case StatusDelivered, StatusPickedUp, StatusCancelled, StatusRefunded:
		return true
	}
	return false
}

// IsCompleted reports whether the order was handed to the customer.
func (s OrderStatus) IsCompleted() bool {
	return s == StatusDelivered || s == StatusPickedUp
}

func flowFor(f FulfillmentType) []OrderStatus {
	if f == FulfillmentPickup {
		return pickupFlow
	}
	return deliveryFlow
}

func indexOf(flow []OrderStatus, s OrderStatus) int {
	for i, v := range flow {
		if v == s {
			return i
		}
	}
	return -1
}

// AllowedNext returns the statuses an order may move to from s.
// The current status is always included (a no-op update).
func (s OrderStatus) AllowedNext(f FulfillmentType) []OrderStatus {
	next := []OrderStatus{s}
	if s.IsTerminal() {
		return next
	}

	flow := flowFor(f)
	i := indexOf(flow, s)
	if i < 0 {
		return next
	}

	if i+1 < len(flow) {
		next = append(next, flow[i+1])
		// decorating is optional
		if flow[i+1] == StatusDecorating && i+2 < len(flow) {
			next = append(next, flow[i+2])
		}
	}
	if i-1 >= 0 {
		next = append(next, flow[i-1])
		if flow[i-1] == StatusDecorating && i-2 >= 0 {
			next = append(next, flow[i-2])
		}
	}
	return append(next, StatusCancelled, StatusRefunded)
}

func (s OrderStatus) CanTransitionTo(next OrderStatus, f FulfillmentType) bool {
	for _, v := range s.AllowedNext(f) {
		if v == next {
			return true
		}
	}
	return false
}

// CanCancel reports whether a customer may cancel an order in status s.
// When not, the message names the stage that blocks it.
func (s OrderStatus) CanCancel() (bool, string) {
	switch s {
	case StatusReceived, StatusConfirmed:
		return true, ""
	case StatusBaking:
		return false, "Cannot cancel order after baking has started"
	case StatusDecorating:
		return false, "Cannot cancel order while it is being decorated"
	case StatusQualityCheck:
		return false, "Cannot cancel order during final quality check"
	case StatusReady:
		return false, "Cannot cancel order that is ready for pickup or delivery"
	case StatusOutForDelivery:
		return false, "Cannot cancel order that is out for delivery"
	case StatusDelivered, StatusPickedUp:
		return false, "Cannot cancel order that has already been completed"
	case StatusCancelled:
		return false, "Order is already cancelled"
	case StatusRefunded:
		return false, "Order has already been refunded"
	}
	return false, "Order cannot be cancelled"
}

// CancellableStatuses are the statuses a customer cancellation may start from.
var CancellableStatuses = []OrderStatus{StatusReceived, StatusConfirmed}
