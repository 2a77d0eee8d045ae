package domain

import "time"

// EventType names a session lifecycle change.
type EventType string

const (
	EventSessionCreated      EventType = "session.created"
	EventRestaurantSubmitted EventType = "restaurant.submitted"
	EventRestaurantDeleted   EventType = "restaurant.deleted"
	EventSessionLocked       EventType = "session.locked"
	EventRestaurantPicked    EventType = "restaurant.picked"
)

// SessionEvent is emitted after a state change has been persisted.
type SessionEvent struct {
	Type         EventType `json:"type"`
	SessionCode  string    `json:"sessionCode"`
	Actor        string    `json:"actor,omitempty"`
	RestaurantID int64     `json:"restaurantId,omitempty"`
	Restaurant   string    `json:"restaurantName,omitempty"`
	OccurredAt   time.Time `json:"occurredAt"`
}
