package model

import "time"

// Collection names a group of records that can be subscribed to
type Collection string

const (
	CollectionCharacters Collection = "characters"
	CollectionUsers      Collection = "users"
	CollectionConfig     Collection = "config"
)

// Snapshot is a full replacement view of one collection.
// Exactly one of the record maps is populated, matching Collection.
type Snapshot struct {
	Collection Collection                 `json:"collection"`
	Characters map[CharacterID]*Character `json:"characters,omitempty"`
	Users      map[UserID]*User           `json:"users,omitempty"`
	AppConfig  *AppConfig                 `json:"appConfig,omitempty"`
	Version    uint64                     `json:"version"`
	At         time.Time                  `json:"at"`
}
