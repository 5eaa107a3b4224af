package request

// GuestRequest is the request body for a guest sign-in
type GuestRequest struct {
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
}

// RegisterRequest is the request body for registering a user
type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// LoginRequest is the request body for logging in
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AssignRequest is the request body for assigning a character.
// A null user_id clears the assignment.
type AssignRequest struct {
	UserID *string `json:"user_id"`
}

// DisabledRequest is the request body for enabling or disabling a character.
// Omitting disabled flips the current value.
type DisabledRequest struct {
	Disabled *bool `json:"disabled"`
}

// SeedRequest is the request body for seeding the roster
type SeedRequest struct {
	Force bool `json:"force"`
}

// ClaimGMRequest is the request body for GM login
type ClaimGMRequest struct {
	PIN string `json:"pin"`
}
