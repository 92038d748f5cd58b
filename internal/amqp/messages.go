package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// SalaryChangedMessage tells the mirror worker that one month changed. It
// carries only the key and the operation: the worker re-reads the current
// amount from storage, so out-of-order delivery converges to last-write-wins
// just like the store itself.
type SalaryChangedMessage struct {
	Month     string    `json:"month"`
	Op        string    `json:"op"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSalaryChangedMessage creates a change message for a month key.
func NewSalaryChangedMessage(month, op string) *SalaryChangedMessage {
	return &SalaryChangedMessage{
		Month:     month,
		Op:        op,
		Timestamp: time.Now(),
	}
}

// Validate checks the operation tag.
func (m *SalaryChangedMessage) Validate() error {
	switch m.Op {
	case OpUpsert, OpDelete:
		return nil
	default:
		return fmt.Errorf("unknown op %q", m.Op)
	}
}

// ToJSON converts the message to JSON bytes
func (m *SalaryChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SalaryChangedMessageFromJSON creates a message from JSON bytes
func SalaryChangedMessageFromJSON(data []byte) (*SalaryChangedMessage, error) {
	var msg SalaryChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
