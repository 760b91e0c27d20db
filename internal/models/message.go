package models

import "time"

// Role identifies which side of the conversation authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageFlags carry response metadata onto the stored message.
type MessageFlags struct {
	IsError  bool `json:"is_error,omitempty"`
	IsUrgent bool `json:"is_urgent,omitempty"`
}

// Message is a single transcript entry. Messages are immutable once created;
// a conversation's history only ever grows and is never reordered.
type Message struct {
	Role      Role         `json:"role"`
	Text      string       `json:"text"`
	Timestamp time.Time    `json:"timestamp"`
	Flags     MessageFlags `json:"flags"`
}
