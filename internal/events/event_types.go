package events

import "time"

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventUserRegistered  EventType = "user_registered"
	EventSessionIssued   EventType = "session_issued"
	EventSessionRevoked  EventType = "session_revoked"
	EventSessionRejected EventType = "session_rejected"
)

// AllEventTypes lists every event the service emits.
var AllEventTypes = []EventType{
	EventUserRegistered,
	EventSessionIssued,
	EventSessionRevoked,
	EventSessionRejected,
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	SubjectID string      `json:"subject_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// SessionPayload accompanies issued and revoked sessions.
type SessionPayload struct {
	SessionID string    `json:"session_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// RejectionPayload carries the server-side reason for a rejected credential.
type RejectionPayload struct {
	Cookie string `json:"cookie"`
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
