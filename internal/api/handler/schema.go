package handler

import "time"

// --- requests ---

type createSessionRequest struct {
	Username string `json:"username" validate:"omitempty,max=50"`
}

type submitRestaurantRequest struct {
	RestaurantName string `json:"restaurantName" validate:"notblank,max=200"`
	SubmittedBy    string `json:"submittedBy"    validate:"max=50"`
}

type createUserRequest struct {
	Username string `json:"username" validate:"notblank,max=50"`
	Email    string `json:"email"    validate:"required,email,max=100"`
	Role     string `json:"role"     validate:"omitempty,oneof=SESSION_INITIATOR GUEST session_initiator guest"`
}

type tokenRequest struct {
	Username string `json:"username" validate:"notblank"`
}

// --- responses ---

type lockResponse struct {
	SessionCode string     `json:"sessionCode"`
	Locked      bool       `json:"locked"`
	LockedAt    *time.Time `json:"lockedAt,omitempty"`
}

type countResponse struct {
	Count int64 `json:"count"`
}

type canRequestResponse struct {
	CanRequest bool `json:"canRequest"`
}

type userValidationResponse struct {
	Username           string `json:"username"`
	Exists             bool   `json:"exists"`
	CanInitiateSession bool   `json:"canInitiateSession"`
}

type userExistsResponse struct {
	Username string `json:"username"`
	Exists   bool   `json:"exists"`
}

type tokenResponse struct {
	Token string `json:"token"`
	User  any    `json:"user"`
}
