package model

import (
	"slices"
	"testing"
)

func TestAllowedNext(t *testing.T) {
	tests := []struct {
		from        OrderStatus
		fulfillment FulfillmentType
		want        []OrderStatus
	}{
		{StatusReceived, FulfillmentDelivery, []OrderStatus{StatusReceived, StatusConfirmed, StatusCancelled, StatusRefunded}},
		{StatusConfirmed, FulfillmentDelivery, []OrderStatus{StatusConfirmed, StatusBaking, StatusReceived, StatusCancelled, StatusRefunded}},
		{StatusBaking, FulfillmentPickup, []OrderStatus{StatusBaking, StatusDecorating, StatusQualityCheck, StatusConfirmed, StatusCancelled, StatusRefunded}},
		{StatusQualityCheck, FulfillmentDelivery, []OrderStatus{StatusQualityCheck, StatusReady, StatusDecorating, StatusBaking, StatusCancelled, StatusRefunded}},
		{StatusReady, FulfillmentDelivery, []OrderStatus{StatusReady, StatusOutForDelivery, StatusQualityCheck, StatusCancelled, StatusRefunded}},
		{StatusReady, FulfillmentPickup, []OrderStatus{StatusReady, StatusPickedUp, StatusQualityCheck, StatusCancelled, StatusRefunded}},
		{StatusDelivered, FulfillmentDelivery, []OrderStatus{StatusDelivered}},
		{StatusCancelled, FulfillmentPickup, []OrderStatus{StatusCancelled}},
		{StatusRefunded, FulfillmentPickup, []OrderStatus{StatusRefunded}},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"/"+string(tt.fulfillment), func(t *testing.T) {
			got := tt.from.AllowedNext(tt.fulfillment)
			if !slices.Equal(got, tt.want) {
				t.Errorf("AllowedNext = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanTransitionTo(t *testing.T) {
	tests := []struct {
		from, to    OrderStatus
		fulfillment FulfillmentType
		want        bool
	}{
		{StatusReceived, StatusReady, FulfillmentDelivery, false},
		{StatusDecorating, StatusBaking, FulfillmentDelivery, true},
		{StatusQualityCheck, StatusBaking, FulfillmentDelivery, true},
		{StatusReady, StatusOutForDelivery, FulfillmentPickup, false},
		{StatusReady, StatusPickedUp, FulfillmentDelivery, false},
		{StatusOutForDelivery, StatusDelivered, FulfillmentDelivery, true},
		{StatusBaking, StatusCancelled, FulfillmentPickup, true},
		{StatusPickedUp, StatusRefunded, FulfillmentPickup, false},
		{StatusBaking, StatusBaking, FulfillmentPickup, true},
	}
	for _, tt := range tests {
		if got := tt.from.CanTransitionTo(tt.to, tt.fulfillment); got != tt.want {
			t.Errorf("%s -> %s (%s) = %v, want %v", tt.from, tt.to, tt.fulfillment, got, tt.want)
		}
	}
}

func TestCanCancel(t *testing.T) {
	for _, s := range AllOrderStatuses {
		ok, msg := s.CanCancel()
		want := slices.Contains(CancellableStatuses, s)
		if ok != want {
			t.Errorf("%s: CanCancel = %v, want %v", s, ok, want)
		}
		if !ok && msg == "" {
			t.Errorf("%s: refusal without a message", s)
		}
	}
	if _, msg := StatusBaking.CanCancel(); msg != "Cannot cancel order after baking has started" {
		t.Errorf("baking message = %q", msg)
	}
}

func TestStatusLabels(t *testing.T) {
	for _, s := range AllOrderStatuses {
		if !s.Valid() {
			t.Errorf("%s not valid", s)
		}
		if s.Label() == string(s) {
			t.Errorf("%s has no label", s)
		}
	}
	if OrderStatus("burnt").Valid() {
		t.Error("unknown status accepted")
	}
}
