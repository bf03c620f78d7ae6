package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Operations carried by ChangeMessage.
const (
	OperationCreate       = "create"
	OperationUpdate       = "update"
	OperationDelete       = "delete"
	OperationResetMonth   = "reset_month"
	OperationResetAll     = "reset_all"
	OperationResetHistory = "reset_history"
)

// ChangeMessage announces a committed change to an owner's ledger. It holds
// no record data; consumers reload what they need.
type ChangeMessage struct {
	OwnerID    string    `json:"owner_id"`
	Collection string    `json:"collection"`
	Operation  string    `json:"operation"`
	MonthKey   string    `json:"month_key,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func NewChangeMessage(ownerID, collection, operation, monthKey string) *ChangeMessage {
	return &ChangeMessage{
		OwnerID:    ownerID,
		Collection: collection,
		Operation:  operation,
		MonthKey:   monthKey,
		Timestamp:  time.Now().UTC(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON decodes a message and rejects one without an owner.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.OwnerID == "" {
		return nil, fmt.Errorf("change message without owner_id")
	}
	return &msg, nil
}
