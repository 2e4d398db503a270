package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateDeliveryRequest OutboxAggregateType = "delivery_request"
	AggregateBid             OutboxAggregateType = "bid"
	AggregatePayment         OutboxAggregateType = "payment"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateDeliveryRequest,
	AggregateBid,
	AggregatePayment,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventRequestCreated     OutboxEventType = "request_created"
	EventBidSubmitted       OutboxEventType = "bid_submitted"
	EventBidAccepted        OutboxEventType = "bid_accepted"
	EventPaymentConfirmed   OutboxEventType = "payment_confirmed"
	EventRiderAssigned      OutboxEventType = "rider_assigned"
	EventRequestPickupReady OutboxEventType = "request_pickup_ready"
	EventRequestInTransit   OutboxEventType = "request_in_transit"
	EventRequestDelivered   OutboxEventType = "request_delivered"
	EventRequestCanceled    OutboxEventType = "request_canceled"
	EventRequestExpired     OutboxEventType = "request_expired"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRequestCreated,
	EventBidSubmitted,
	EventBidAccepted,
	EventPaymentConfirmed,
	EventRiderAssigned,
	EventRequestPickupReady,
	EventRequestInTransit,
	EventRequestDelivered,
	EventRequestCanceled,
	EventRequestExpired,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
