package store

import "time"

// Role constants define valid message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message. Messages are immutable once written and
// are only removed as part of whole-session deletion.
type Message struct {
	ID        int64     `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// MessageRef is the denormalized copy of a session's most recent message,
// kept on the session record so session lists can render a preview without
// loading the full message sequence.
type MessageRef struct {
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Role      string    `json:"role"`
}

// Session is a named conversation thread owning an ordered message sequence.
//
// Invariants maintained by the store: MessageCount equals the length of the
// owned sequence, and LastMessage mirrors the chronologically final message.
type Session struct {
	ID           int64       `json:"id"`
	Title        string      `json:"title"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
	MessageCount int         `json:"message_count"`
	LastMessage  *MessageRef `json:"last_message,omitempty"`
}

// SessionDetail is a session merged with its full message sequence.
type SessionDetail struct {
	Session
	Messages []Message `json:"messages"`
}

// ValidRole reports whether role is one of the accepted message roles.
func ValidRole(role string) bool {
	return role == RoleUser || role == RoleAssistant
}
