package amqp

import (
	"encoding/json"
	"time"

	"stationops/internal/core"
)

// Record kinds carried on commit messages.
const (
	KindReading = "reading"
	KindPrice   = "price"
	KindTank    = "tank"
	KindExpense = "expense"
)

// RecordCommittedMessage announces that a record entered the store.
// It carries only the kind, id and business date; consumers re-read
// whatever else they need from the database.
type RecordCommittedMessage struct {
	Kind      string    `json:"kind"`
	ID        string    `json:"id"`
	Date      core.Date `json:"date"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRecordCommittedMessage stamps a commit message for the given record.
func NewRecordCommittedMessage(kind, id string, date core.Date) *RecordCommittedMessage {
	return &RecordCommittedMessage{
		Kind:      kind,
		ID:        id,
		Date:      date,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *RecordCommittedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordCommittedMessageFromJSON parses a message from JSON bytes.
func RecordCommittedMessageFromJSON(data []byte) (*RecordCommittedMessage, error) {
	var msg RecordCommittedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
