package kafka

import (
	"time"

	"github.com/google/uuid"
)

// EventType определяет тип публикуемого наружу события
type EventType string

const (
	// Checkout события
	EventTypeCheckoutStarted    EventType = "checkout.started"
	EventTypeCheckoutStep       EventType = "checkout.step.navigated"
	EventTypeCheckoutReset      EventType = "checkout.reset"
	EventTypeCheckoutRehydrated EventType = "checkout.rehydrated"

	// Order события
	EventTypeOrderSubmitted EventType = "order.submitted"
	EventTypeOrderFailed    EventType = "order.failed"
	EventTypeOrderAborted   EventType = "order.aborted"

	// Address события
	EventTypeAddressSynced     EventType = "address.synced"
	EventTypeAddressRolledBack EventType = "address.rolled_back"
)

// Topics для Kafka
const (
	TopicCheckoutEvents = "storefront.checkout.events"
	TopicOrderEvents    = "storefront.order.events"
)

// CheckoutEvent представляет событие жизненного цикла checkout для аналитики
type CheckoutEvent struct {
	EventID   string                 `json:"event_id"`
	EventType EventType              `json:"event_type"`
	SessionID string                 `json:"session_id"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewCheckoutEvent создает новое событие checkout
func NewCheckoutEvent(eventType EventType, sessionID string, metadata map[string]interface{}) *CheckoutEvent {
	return &CheckoutEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		SessionID: sessionID,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}
