package domain

import (
	"strings"
	"time"
)

// Role determines what a user may do in the app.
type Role string

const (
	RoleSessionInitiator Role = "SESSION_INITIATOR"
	RoleGuest            Role = "GUEST"
)

// ParseRole maps a role name to a Role, case-insensitively.
// Unknown or empty names fall back to RoleGuest.
func ParseRole(s string) Role {
	switch Role(strings.ToUpper(strings.TrimSpace(s))) {
	case RoleSessionInitiator:
		return RoleSessionInitiator
	default:
		return RoleGuest
	}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSessionInitiator || r == RoleGuest
}

// User models a known participant.
type User struct {
	ID        int64     `json:"id" bson:"_id"`
	Username  string    `json:"username" bson:"username"`
	Email     string    `json:"email" bson:"email"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
}

// CanInitiateSession reports whether the user is allowed to open sessions.
func (u *User) CanInitiateSession() bool {
	return u != nil && u.Role == RoleSessionInitiator
}
