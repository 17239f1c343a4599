package events

import "time"

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "QUERY_ANSWERED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is a generic event implementation used when reconstructing
// events from the wire.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// QueryAnsweredEvent is published whenever the RAG pipeline completes an
// exchange, regardless of the front end that initiated it.
type QueryAnsweredEvent struct {
	UserID     string
	SessionID  string
	Channel    string // api | bot | voice
	Question   string
	Answer     string
	OccurredAt time.Time
}

func (e QueryAnsweredEvent) EventType() string {
	return "QUERY_ANSWERED"
}

func (e QueryAnsweredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"session_id": e.SessionID,
		"channel":    e.Channel,
		"question":   e.Question,
		"answer":     e.Answer,
	}
}

func (e QueryAnsweredEvent) Timestamp() time.Time {
	return e.OccurredAt
}
