package service

import (
	"testing"

	"github.com/wasl-next/internal/constants"
)

func TestCanTransitOrderStatus(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusConfirmed, true},
		{constants.OrderStatusProcessing, constants.OrderStatusReadyForShipping, true},
		{constants.OrderStatusReadyForShipping, constants.OrderStatusDelivered, true},
		{constants.OrderStatusShipped, constants.OrderStatusConfirmed, false},
		{constants.OrderStatusDelivered, constants.OrderStatusReturned, true},
		{constants.OrderStatusDelivered, constants.OrderStatusRefunded, true},
		{constants.OrderStatusDelivered, constants.OrderStatusCanceled, false},
		{constants.OrderStatusProcessing, constants.OrderStatusCanceled, true},
		{constants.OrderStatusCanceled, constants.OrderStatusConfirmed, false},
		{constants.OrderStatusReturned, constants.OrderStatusRefunded, true},
		{constants.OrderStatusRefunded, constants.OrderStatusReturned, false},
		{constants.OrderStatusPending, constants.OrderStatusPending, false},
		{"unknown", constants.OrderStatusConfirmed, false},
	}
	for _, c := range cases {
		if got := CanTransitOrderStatus(c.from, c.to); got != c.want {
			t.Fatalf("CanTransitOrderStatus(%s, %s) want %v got %v", c.from, c.to, c.want, got)
		}
	}
}

func TestIsKnownOrderStatus(t *testing.T) {
	if !IsKnownOrderStatus(" Delivered ") {
		t.Fatalf("status matching should trim and lowercase")
	}
	if IsKnownOrderStatus("teleported") {
		t.Fatalf("unknown status should not validate")
	}
	if !IsTerminalOrderStatus(constants.OrderStatusRefunded) {
		t.Fatalf("refunded should be terminal")
	}
	if IsTerminalOrderStatus(constants.OrderStatusDelivered) {
		t.Fatalf("delivered should not be terminal")
	}
}
