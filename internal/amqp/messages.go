package amqp

import (
	"encoding/json"
	"time"
)

// MonthChangedMessage signals that a month's ledger was mutated and its
// summary should be re-exported. It carries only the month key and a
// version counter; the worker reloads the full month from storage.
type MonthChangedMessage struct {
	MonthKey  string    `json:"monthKey"`
	Version   int64     `json:"version"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMonthChangedMessage creates a message for the given month and version.
func NewMonthChangedMessage(monthKey string, version int64) *MonthChangedMessage {
	return &MonthChangedMessage{
		MonthKey:  monthKey,
		Version:   version,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MonthChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MonthChangedMessageFromJSON creates a message from JSON bytes
func MonthChangedMessageFromJSON(data []byte) (*MonthChangedMessage, error) {
	var msg MonthChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
