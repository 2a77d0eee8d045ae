package domain

import "time"

// Restaurant is a candidate submitted to a session's ledger.
// SubmittedBy is free text and is not checked against the user directory.
type Restaurant struct {
	ID          int64     `json:"id" bson:"_id"`
	Name        string    `json:"restaurantName" bson:"restaurant_name"`
	SubmittedBy string    `json:"submittedBy" bson:"submitted_by"`
	SessionID   int64     `json:"sessionId" bson:"session_id"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submitted_at"`
}
