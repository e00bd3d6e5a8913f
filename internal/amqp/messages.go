package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published on ledger mutations.
const (
	EventTransactionCreated = "transaction.created"
	EventTransactionDeleted = "transaction.deleted"
	EventReminderCreated    = "reminder.created"
	EventReminderDeleted    = "reminder.deleted"
	EventReminderPaid       = "reminder.paid"
)

// LedgerEvent is a lightweight notification that a record changed. Consumers
// that need the full record fetch it from the store by ID.
type LedgerEvent struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewLedgerEvent creates an event stamped with the current time.
func NewLedgerEvent(kind, id string) *LedgerEvent {
	return &LedgerEvent{Kind: kind, ID: id, Timestamp: time.Now()}
}

// ToJSON converts the event to JSON bytes.
func (e *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// LedgerEventFromJSON parses an event from JSON bytes.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var e LedgerEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return &e, nil
}
