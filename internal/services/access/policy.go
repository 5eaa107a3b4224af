package access

import (
	"github.com/mcoot/charsheet/internal/model"
)

// State is the viewer's relationship to the campaign
type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateGMUnknown       State = "gm_unknown"
	StateGM              State = "gm"
	StatePlayerUnclaimed State = "player_unclaimed"
	StatePlayerClaimed   State = "player_claimed"
)

// Viewer is a resolved session. The zero value is unauthenticated.
type Viewer struct {
	State       State              `json:"state"`
	UserID      model.UserID       `json:"userId,omitempty"`
	CharacterID *model.CharacterID `json:"characterId,omitempty"`
}

// Unauthenticated returns the signed-out viewer
func Unauthenticated() Viewer {
	return Viewer{State: StateUnauthenticated}
}

// SignedIn returns a viewer whose GM status is not yet known
func SignedIn(uid model.UserID) Viewer {
	return Viewer{State: StateGMUnknown, UserID: uid}
}

// Resolve moves a signed-in viewer to its terminal state using the app
// config and the current roster. Unauthenticated viewers are returned as is.
// A nil cfg means no GM has been designated yet.
func (v Viewer) Resolve(cfg *model.AppConfig, roster []*model.Character) Viewer {
	if v.UserID == "" {
		return Unauthenticated()
	}

	resolved := Viewer{UserID: v.UserID}
	for _, c := range roster {
		if c.IsAssignedTo(v.UserID) {
			id := c.ID
			resolved.CharacterID = &id
			break
		}
	}

	switch {
	case cfg.IsGM(v.UserID):
		resolved.State = StateGM
	case resolved.CharacterID != nil:
		resolved.State = StatePlayerClaimed
	default:
		resolved.State = StatePlayerUnclaimed
	}
	return resolved
}

// Resolve builds the viewer for user. A nil user is unauthenticated.
func Resolve(user *model.User, cfg *model.AppConfig, roster []*model.Character) Viewer {
	if user == nil {
		return Unauthenticated()
	}
	return SignedIn(user.UID).Resolve(cfg, roster)
}

// IsAuthenticated reports whether the viewer has signed in
func (v Viewer) IsAuthenticated() bool {
	return v.State != StateUnauthenticated && v.State != ""
}

// IsGM reports whether the viewer is the designated GM
func (v Viewer) IsGM() bool {
	return v.State == StateGM
}

// CanView reports whether the viewer may read character id.
// Unclaimed players browse the whole roster to pick a character.
func (v Viewer) CanView(id model.CharacterID) bool {
	switch v.State {
	case StateGM, StatePlayerUnclaimed:
		return true
	case StatePlayerClaimed:
		return v.owns(id)
	default:
		return false
	}
}

// CanEdit reports whether the viewer may write character id
func (v Viewer) CanEdit(id model.CharacterID) bool {
	switch v.State {
	case StateGM:
		return true
	case StatePlayerClaimed:
		return v.owns(id)
	default:
		return false
	}
}

// CanAdminister reports whether the viewer may assign, disable and list users
func (v Viewer) CanAdminister() bool {
	return v.IsGM()
}

// CanClaim reports whether the viewer may claim an unassigned character
func (v Viewer) CanClaim() bool {
	return v.State == StatePlayerUnclaimed
}

func (v Viewer) owns(id model.CharacterID) bool {
	return v.CharacterID != nil && *v.CharacterID == id
}
