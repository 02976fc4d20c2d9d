package enums

import "testing"

func TestOrderStatusCanTransition(t *testing.T) {
	cases := []struct {
		from OrderStatus
		to   OrderStatus
		want bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusReadyForPickup, false},
		{OrderStatusPending, OrderStatusCompleted, false},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusReadyForPickup, true},
		{OrderStatusProcessing, OrderStatusPending, false},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusReadyForPickup, OrderStatusCompleted, true},
		{OrderStatusReadyForPickup, OrderStatusCancelled, true},
		{OrderStatusCompleted, OrderStatusCancelled, false},
		{OrderStatusCompleted, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		if got := tc.from.CanTransition(tc.to); got != tc.want {
			t.Errorf("%s -> %s: expected %v got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestOrderStatusIsTerminal(t *testing.T) {
	if !OrderStatusCompleted.IsTerminal() || !OrderStatusCancelled.IsTerminal() {
		t.Error("completed and cancelled must be terminal")
	}
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusProcessing, OrderStatusReadyForPickup} {
		if status.IsTerminal() {
			t.Errorf("%s must not be terminal", status)
		}
	}
}

func TestParseOrderStatusRejectsUnknown(t *testing.T) {
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Error("expected unknown status to be rejected")
	}
	status, err := ParseOrderStatus("ready_for_pickup")
	if err != nil || status != OrderStatusReadyForPickup {
		t.Errorf("expected ready_for_pickup got %v %v", status, err)
	}
}
