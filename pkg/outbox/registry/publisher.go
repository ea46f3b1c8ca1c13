package registry

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/angelmondragon/pos-inventory/pkg/config"
	"github.com/angelmondragon/pos-inventory/pkg/db/models"
	"github.com/angelmondragon/pos-inventory/pkg/enums"
	"github.com/angelmondragon/pos-inventory/pkg/outbox"
	"github.com/angelmondragon/pos-inventory/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() any
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    any
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}

// NewEventRegistry builds the registry with the configured topic names.
// Low-stock alerts go to their own topic so paging/notification consumers do
// not have to filter the full inventory stream.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.InventoryTopic == "" {
		return nil, fmt.Errorf("inventory topic is required")
	}
	if cfg.AlertsTopic == "" {
		return nil, fmt.Errorf("alerts topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventStockAdjusted,
			AggregateType:  enums.AggregateInventoryItem,
			Topic:          cfg.InventoryTopic,
			PayloadFactory: func() any { return &payloads.StockAdjustedEvent{} },
		},
		{
			EventType:      enums.EventCategoryTrackingEnabled,
			AggregateType:  enums.AggregateInventoryCategory,
			Topic:          cfg.InventoryTopic,
			PayloadFactory: func() any { return &payloads.CategoryTrackingEnabledEvent{} },
		},
		{
			EventType:      enums.EventCategoryTrackingDisabled,
			AggregateType:  enums.AggregateInventoryCategory,
			Topic:          cfg.InventoryTopic,
			PayloadFactory: func() any { return &payloads.CategoryTrackingDisabledEvent{} },
		},
		{
			EventType:      enums.EventPortionPriceOverridden,
			AggregateType:  enums.AggregateMenuItem,
			Topic:          cfg.InventoryTopic,
			PayloadFactory: func() any { return &payloads.PortionPriceOverriddenEvent{} },
		},
		{
			EventType:      enums.EventLowStockDetected,
			AggregateType:  enums.AggregateInventoryItem,
			Topic:          cfg.AlertsTopic,
			PayloadFactory: func() any { return &payloads.LowStockDetectedEvent{} },
		},
	} {
		reg.register(desc)
	}
	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Descriptor returns the descriptor registered for eventType.
func (r *EventRegistry) Descriptor(eventType enums.OutboxEventType) (EventDescriptor, bool) {
	desc, ok := r.entries[eventType]
	return desc, ok
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	envelope, err := outbox.DecodeEnvelope(event.Payload)
	if err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("%s: %w", event.EventType, err))
	}
	if envelope.Type != "" && envelope.Type != event.EventType {
		return nil, NewNonRetryableError(fmt.Errorf("envelope type %s does not match row type %s", envelope.Type, event.EventType))
	}

	payload := desc.PayloadFactory()
	if err := envelope.DecodeData(payload); err != nil {
		return nil, NewNonRetryableError(err)
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}
