package models

import "time"

// Record is one message delivered by a push transport.
type Record struct {
	Key        []byte
	Value      []byte
	Topic      string
	ReceivedAt time.Time
}

// DeadLetter is an undecodable record kept for inspection.
type DeadLetter struct {
	Topic      string    `json:"topic"`
	Payload    string    `json:"payload"`
	Reason     string    `json:"reason"`
	ReceivedAt time.Time `json:"received_at"`
}
