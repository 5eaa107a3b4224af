package roster

import (
	"github.com/mcoot/charsheet/internal/model"
)

// PlanAssignment returns the writes that assign character id to uid, in
// the order they must be issued. Any other character held by uid is
// cleared first so at most one character carries a given user. A nil uid
// clears the target. Records that would not change are left out.
func PlanAssignment(roster []*model.Character, id model.CharacterID, uid *model.UserID) ([]*model.Character, error) {
	var target *model.Character
	for _, c := range roster {
		if c.ID == id {
			target = c
			break
		}
	}
	if target == nil {
		return nil, model.ErrCharacterNotFound
	}

	var writes []*model.Character
	if uid != nil {
		for _, c := range roster {
			if c.ID != id && c.IsAssignedTo(*uid) {
				cleared := c.Clone()
				cleared.AssignedUserID = nil
				writes = append(writes, cleared)
			}
		}
	}

	if sameAssignment(target.AssignedUserID, uid) {
		return writes, nil
	}
	next := target.Clone()
	if uid != nil {
		u := *uid
		next.AssignedUserID = &u
	} else {
		next.AssignedUserID = nil
	}
	return append(writes, next), nil
}

// PlanClaim checks that uid may take character id and returns the
// updated record
func PlanClaim(roster []*model.Character, id model.CharacterID, uid model.UserID) (*model.Character, error) {
	var target *model.Character
	for _, c := range roster {
		if c.IsAssignedTo(uid) {
			return nil, model.ErrAlreadyClaimed
		}
		if c.ID == id {
			target = c
		}
	}

	switch {
	case target == nil:
		return nil, model.ErrCharacterNotFound
	case target.IsAssigned():
		return nil, model.ErrCharacterTaken
	case target.Disabled:
		return nil, model.ErrCharacterDisabled
	}

	next := target.Clone()
	next.AssignedUserID = &uid
	return next, nil
}

func sameAssignment(a, b *model.UserID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
