package response

import (
	"time"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/rules"
	"github.com/mcoot/charsheet/internal/services/access"
	"github.com/mcoot/charsheet/internal/services/auth"
)

// User represents a user in API responses
type User struct {
	ID          string  `json:"id"`
	Label       string  `json:"label"`
	DisplayName *string `json:"display_name,omitempty"`
	Email       *string `json:"email,omitempty"`
	IsGuest     bool    `json:"is_guest"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.UID),
		Label:       u.Label(),
		DisplayName: u.DisplayName,
		Email:       u.Email,
		IsGuest:     u.IsGuest,
	}
}

// UsersFromModel converts a list of users
func UsersFromModel(users []*model.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = UserFromModel(u)
	}
	return out
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User      `json:"user"`
	SessionToken string    `json:"session_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
		ExpiresAt:    s.ExpiresAt,
	}
}

// Me is the signed-in user with their resolved access state
type Me struct {
	User   User          `json:"user"`
	Viewer access.Viewer `json:"viewer"`
}

// Characters is a list of character records
type Characters struct {
	Characters []*model.Character `json:"characters"`
}

// Seeded reports how many characters a seed wrote
type Seeded struct {
	Seeded int `json:"seeded"`
}

// Catalog is the reference data clients use for pickers and labels
type Catalog struct {
	Attributes  []rules.AttributeDef `json:"attributes"`
	Skills      []rules.SkillDef     `json:"skills"`
	Talents     map[string]string    `json:"talents"`
	Weapons     []model.Weapon       `json:"weapons"`
	Backstories map[string]string    `json:"backstories"`
}

// CatalogFromRules converts a rules catalog
func CatalogFromRules(c *rules.Catalog) Catalog {
	backstories := make(map[string]string, len(c.Backstories))
	for id, text := range c.Backstories {
		backstories[string(id)] = text
	}
	return Catalog{
		Attributes:  c.Attributes,
		Skills:      c.Skills,
		Talents:     c.Talents,
		Weapons:     c.Weapons,
		Backstories: backstories,
	}
}

// Health is the health check response
type Health struct {
	Status      string `json:"status"`
	Storage     string `json:"storage"`
	Characters  int    `json:"characters"`
	LiveClients int    `json:"live_clients"`
}
