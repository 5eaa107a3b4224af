package model

import "time"

// UserID uniquely identifies a signed-in identity
type UserID string

// User is the identity record written on every sign-in
type User struct {
	UID         UserID    `json:"uid"`
	DisplayName *string   `json:"displayName"`
	Email       *string   `json:"email"`
	IsGuest     bool      `json:"isGuest"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Label is the name shown for a user in assignment lists
func (u *User) Label() string {
	if u.DisplayName != nil && *u.DisplayName != "" {
		return *u.DisplayName
	}
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	return string(u.UID)
}

// RegisteredUser holds local credentials for a user.
// Stored separately so password hashes never travel with sessions.
type RegisteredUser struct {
	UID          UserID    `json:"uid"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}
