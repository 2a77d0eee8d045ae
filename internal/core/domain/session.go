package domain

import "time"

// SessionStatus represents the lifecycle state of a session.
// The only transition is ACTIVE -> LOCKED; LOCKED is terminal.
type SessionStatus string

const (
	SessionActive SessionStatus = "ACTIVE"
	SessionLocked SessionStatus = "LOCKED"
)

// SessionCodeLength is the number of characters in a session code.
const SessionCodeLength = 6

// Session is a single decision round, addressed by its code.
type Session struct {
	ID                   int64         `json:"id" bson:"_id"`
	Code                 string        `json:"sessionCode" bson:"session_code"`
	InitiatorID          int64         `json:"initiatorId" bson:"initiator_id"`
	Initiator            string        `json:"initiator" bson:"initiator"`
	Status               SessionStatus `json:"status" bson:"status"`
	CreatedAt            time.Time     `json:"createdAt" bson:"created_at"`
	LockedAt             *time.Time    `json:"lockedAt,omitempty" bson:"locked_at,omitempty"`
	SelectedRestaurantID *int64        `json:"selectedRestaurantId,omitempty" bson:"selected_restaurant_id,omitempty"`
}

// IsLocked reports whether the session no longer accepts submissions.
func (s *Session) IsLocked() bool {
	return s != nil && s.Status == SessionLocked
}

// ValidSessionCode reports whether code has the shape of a session code:
// exactly six characters drawn from [0-9A-Z].
func ValidSessionCode(code string) bool {
	if len(code) != SessionCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c < '0' || c > '9') && (c < 'A' || c > 'Z') {
			return false
		}
	}
	return true
}
