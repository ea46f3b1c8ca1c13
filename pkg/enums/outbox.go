package enums

import "fmt"

// OutboxAggregateType identifies the entity an outbox row describes.
type OutboxAggregateType string

const (
	AggregateInventoryItem     OutboxAggregateType = "inventory_item"
	AggregateInventoryCategory OutboxAggregateType = "inventory_category"
	AggregateMenuItem          OutboxAggregateType = "menu_item"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateInventoryItem,
	AggregateInventoryCategory,
	AggregateMenuItem,
}

// IsValid reports whether the value matches a known aggregate type.
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

// OutboxEventType names a domain event carried through the outbox.
type OutboxEventType string

const (
	EventStockAdjusted            OutboxEventType = "stock_adjusted"
	EventLowStockDetected         OutboxEventType = "low_stock_detected"
	EventCategoryTrackingEnabled  OutboxEventType = "category_tracking_enabled"
	EventCategoryTrackingDisabled OutboxEventType = "category_tracking_disabled"
	EventPortionPriceOverridden   OutboxEventType = "portion_price_overridden"
)

var validOutboxEventTypes = []OutboxEventType{
	EventStockAdjusted,
	EventLowStockDetected,
	EventCategoryTrackingEnabled,
	EventCategoryTrackingDisabled,
	EventPortionPriceOverridden,
}

// IsValid reports whether the value matches a known event type.
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

// OutboxDLQErrorReason explains why an event was moved to the dead letter table.
type OutboxDLQErrorReason string

const (
	// Unroutable events have no registered topic or an undecodable payload.
	OutboxDLQReasonUnroutable OutboxDLQErrorReason = "unroutable"
	// NonRetryable events were rejected by the broker or had no publisher.
	OutboxDLQReasonNonRetryable OutboxDLQErrorReason = "non_retryable"
	OutboxDLQReasonMaxAttempts  OutboxDLQErrorReason = "max_attempts"
)

func (r OutboxDLQErrorReason) IsValid() bool {
	switch r {
	case OutboxDLQReasonUnroutable, OutboxDLQReasonNonRetryable, OutboxDLQReasonMaxAttempts:
		return true
	}
	return false
}
