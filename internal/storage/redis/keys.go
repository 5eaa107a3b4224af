package redis

import (
	"fmt"

	"github.com/mcoot/charsheet/internal/model"
)

// rootPrefix starts every key this package writes
const rootPrefix = "charsheet"

// keyspace builds the keys of one campaign. Campaigns sharing a Redis
// instance never see each other's records.
type keyspace struct {
	prefix string
}

func newKeyspace(campaign string) keyspace {
	if campaign == "" {
		return keyspace{prefix: rootPrefix}
	}
	return keyspace{prefix: rootPrefix + ":" + campaign}
}

// character is a JSON character record
func (k keyspace) character(id model.CharacterID) string {
	return fmt.Sprintf("%s:character:%s", k.prefix, id)
}

// characters is the SET of character keys
func (k keyspace) characters() string {
	return k.prefix + ":idx:characters"
}

func (k keyspace) user(uid model.UserID) string {
	return fmt.Sprintf("%s:user:%s", k.prefix, uid)
}

func (k keyspace) users() string {
	return k.prefix + ":idx:users"
}

// registeredUser holds credentials, by username
func (k keyspace) registeredUser(username string) string {
	return fmt.Sprintf("%s:registered_user:%s", k.prefix, username)
}

func (k keyspace) appConfig() string {
	return k.prefix + ":config:app"
}

// version counts writes to a collection
func (k keyspace) version(c model.Collection) string {
	return fmt.Sprintf("%s:version:%s", k.prefix, c)
}

// events is the pub/sub channel announcing writes to a collection
func (k keyspace) events(c model.Collection) string {
	return fmt.Sprintf("%s:events:%s", k.prefix, c)
}
