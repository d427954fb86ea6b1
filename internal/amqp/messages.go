package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"financas/internal/core"
)

// Change operations carried by LedgerChangedMessage.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpRecord = "record"
	// OpRefresh asks the worker to recompute a month without a record change.
	OpRefresh = "refresh"
)

// LedgerChangedMessage announces a write to a household ledger. The worker
// reloads the affected months from the store, so only identifiers travel.
type LedgerChangedMessage struct {
	HouseholdID uuid.UUID `json:"householdId"`
	Entity      string    `json:"entity"`
	EntityID    uuid.UUID `json:"entityId"`
	Op          string    `json:"op"`
	// Periods lists the months whose totals may have changed; empty means
	// the change is not tied to a month (categories, reserves).
	Periods   []core.Period `json:"periods,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewLedgerChangedMessage creates a message stamped with the current time,
// dropping zero and duplicate periods.
func NewLedgerChangedMessage(householdID uuid.UUID, entity string, entityID uuid.UUID, op string, periods ...core.Period) *LedgerChangedMessage {
	msg := &LedgerChangedMessage{
		HouseholdID: householdID,
		Entity:      entity,
		EntityID:    entityID,
		Op:          op,
		Timestamp:   time.Now().UTC(),
	}
	for _, p := range periods {
		if p.IsZero() || containsPeriod(msg.Periods, p) {
			continue
		}
		msg.Periods = append(msg.Periods, p)
	}
	return msg
}

func containsPeriod(ps []core.Period, p core.Period) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

// ToJSON converts the message to JSON bytes
func (m *LedgerChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerChangedMessageFromJSON decodes and validates a message body.
func LedgerChangedMessageFromJSON(data []byte) (*LedgerChangedMessage, error) {
	var msg LedgerChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.HouseholdID == uuid.Nil {
		return nil, errors.New("message without household ID")
	}
	if msg.Entity == "" {
		return nil, errors.New("message without entity")
	}
	return &msg, nil
}
