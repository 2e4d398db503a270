package projection

import (
	"testing"

	"github.com/swiftdropng/swiftdrop-backend/pkg/enums"
	pkgerrors "github.com/swiftdropng/swiftdrop-backend/pkg/errors"
)

func TestRoundTripAllReachableStates(t *testing.T) {
	states := []enums.RequestStatus{
		enums.RequestStatusCreated,
		enums.RequestStatusOpenForBids,
		enums.RequestStatusBidAccepted,
		enums.RequestStatusPaymentPending,
		enums.RequestStatusPaymentConfirmed,
		enums.RequestStatusRiderAssigned,
		enums.RequestStatusPickupReady,
		enums.RequestStatusInTransit,
		enums.RequestStatusDelivered,
		enums.RequestStatusCancelled,
	}
	for _, state := range states {
		snap, err := Flatten(state)
		if err != nil {
			t.Fatalf("%s: flatten: %v", state, err)
		}
		back, err := Project(snap)
		if err != nil {
			t.Fatalf("%s: project: %v", state, err)
		}
		if back != state {
			t.Fatalf("round trip lost information: %s -> %+v -> %s", state, snap, back)
		}
	}
}

func TestCancelledShortCircuits(t *testing.T) {
	snap := LegacySnapshot{
		Status:        "cancelled",
		PaymentStatus: "confirmed",
		RiderAssigned: true,
		InTransit:     true,
	}
	got, err := Project(snap)
	if err != nil {
		t.Fatal(err)
	}
	if got != enums.RequestStatusCancelled {
		t.Fatalf("expected cancelled, got %s", got)
	}
}

func TestUnpaidWithAcceptedSignalProjectsPaymentPending(t *testing.T) {
	got, err := Project(LegacySnapshot{Status: "accepted", PaymentStatus: "pending"})
	if err != nil {
		t.Fatal(err)
	}
	if got != enums.RequestStatusPaymentPending {
		t.Fatalf("expected payment_pending, got %s", got)
	}
}

func TestConfirmedWithoutFlagsDefaultsToPaymentConfirmed(t *testing.T) {
	got, err := Project(LegacySnapshot{Status: "accepted", PaymentStatus: "confirmed"})
	if err != nil {
		t.Fatal(err)
	}
	if got != enums.RequestStatusPaymentConfirmed {
		t.Fatalf("expected payment_confirmed, got %s", got)
	}
}

func TestMostProgressedFlagWins(t *testing.T) {
	snap := LegacySnapshot{
		Status:        "accepted",
		PaymentStatus: "confirmed",
		RiderAssigned: true,
		PickupReady:   true,
		InTransit:     true,
	}
	got, err := Project(snap)
	if err != nil {
		t.Fatal(err)
	}
	if got != enums.RequestStatusInTransit {
		t.Fatalf("expected in_transit, got %s", got)
	}
}

func TestUnreachableCombinationsSurfaceInconsistentState(t *testing.T) {
	cases := []LegacySnapshot{
		// progress before payment confirmation
		{Status: "accepted", PaymentStatus: "pending", RiderAssigned: true},
		// non-cumulative flags
		{Status: "accepted", PaymentStatus: "confirmed", InTransit: true},
		// payment recorded before acceptance
		{Status: "open", PaymentStatus: "confirmed"},
		// unknown status value
		{Status: "shipped"},
		// unknown payment status
		{Status: "accepted", PaymentStatus: "settled"},
	}
	for _, snap := range cases {
		_, err := Project(snap)
		if err == nil {
			t.Fatalf("expected error for %+v", snap)
		}
		if pkgerrors.As(err).Code() != pkgerrors.CodeInconsistentState {
			t.Fatalf("expected INCONSISTENT_STATE for %+v, got %v", snap, err)
		}
	}
}

func TestFromOrderShape(t *testing.T) {
	cases := []struct {
		in   OrderShape
		want enums.RequestStatus
	}{
		{OrderShape{DeliveryStatus: "", PaymentStatus: "pending"}, enums.RequestStatusPaymentPending},
		{OrderShape{DeliveryStatus: "rider_assigned", PaymentStatus: "confirmed"}, enums.RequestStatusRiderAssigned},
		{OrderShape{DeliveryStatus: "pickup_ready", PaymentStatus: "confirmed"}, enums.RequestStatusPickupReady},
		{OrderShape{DeliveryStatus: "in_transit", PaymentStatus: "confirmed"}, enums.RequestStatusInTransit},
		{OrderShape{DeliveryStatus: "delivered", PaymentStatus: "confirmed"}, enums.RequestStatusDelivered},
		{OrderShape{OrderStatus: "cancelled", PaymentStatus: "confirmed"}, enums.RequestStatusCancelled},
	}
	for _, tc := range cases {
		got, err := Project(FromOrderShape(tc.in))
		if err != nil {
			t.Fatalf("%+v: %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("%+v: got %s, want %s", tc.in, got, tc.want)
		}
	}
}
