package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mcoot/charsheet/internal/model"
)

// Subscription is a live feed of snapshots for one collection.
// Events is closed once the subscription ends.
type Subscription struct {
	events <-chan *model.Snapshot
	errors <-chan error
	cancel context.CancelFunc
	once   sync.Once
}

// NewSubscription wraps backend channels. cancel must cause the backend
// to close both channels.
func NewSubscription(events <-chan *model.Snapshot, errs <-chan error, cancel context.CancelFunc) *Subscription {
	return &Subscription{events: events, errors: errs, cancel: cancel}
}

// Events returns the snapshot channel. Snapshots may be shared between
// subscribers and must be treated as read-only.
func (s *Subscription) Events() <-chan *model.Snapshot {
	return s.events
}

// Errors reports failures to refresh a snapshot. The feed keeps running.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.cancel)
}

// LoadSnapshot reads the current state of a collection
func LoadSnapshot(ctx context.Context, src SnapshotSource, collection model.Collection, at time.Time) (*model.Snapshot, error) {
	snap := &model.Snapshot{Collection: collection, At: at}
	switch collection {
	case model.CollectionCharacters:
		chars, err := src.ListCharacters(ctx)
		if err != nil {
			return nil, fmt.Errorf("list characters: %w", err)
		}
		snap.Characters = make(map[model.CharacterID]*model.Character, len(chars))
		for _, c := range chars {
			snap.Characters[c.ID] = c
		}
	case model.CollectionUsers:
		users, err := src.ListUsers(ctx)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		snap.Users = make(map[model.UserID]*model.User, len(users))
		for _, u := range users {
			snap.Users[u.UID] = u
		}
	case model.CollectionConfig:
		cfg, err := src.GetAppConfig(ctx)
		if err != nil && !errors.Is(err, model.ErrAppConfigNotFound) {
			return nil, fmt.Errorf("get app config: %w", err)
		}
		snap.AppConfig = cfg
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return snap, nil
}

// ErrUnknownCollection is returned when subscribing to a collection that does not exist
var ErrUnknownCollection = errors.New("unknown collection")
