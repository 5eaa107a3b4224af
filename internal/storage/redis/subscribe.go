package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

// Subscribe listens on the collection's events channel and re-reads the
// collection on every notification. The pending snapshot is replaced
// rather than queued when the consumer falls behind.
func (s *Storage) Subscribe(ctx context.Context, collection model.Collection) (*storage.Subscription, error) {
	switch collection {
	case model.CollectionCharacters, model.CollectionUsers, model.CollectionConfig:
	default:
		return nil, fmt.Errorf("%w: %q", storage.ErrUnknownCollection, collection)
	}

	pubsub := s.client.Subscribe(ctx, s.keys.events(collection))

	// Wait for the subscription to be confirmed so no write between the
	// initial read and the first notification is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		if errors.Is(err, redis.ErrClosed) {
			err = storage.ErrClosed
		}
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	initial, err := s.snapshot(ctx, collection)
	if err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	eventsChan := make(chan *model.Snapshot, 1)
	errorsChan := make(chan error, 1)
	eventsChan <- initial

	subCtx, cancelFunc := context.WithCancel(ctx)

	go func() {
		defer close(eventsChan)
		defer close(errorsChan)
		defer func() { _ = pubsub.Close() }()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				snap, err := s.snapshot(subCtx, collection)
				if err != nil {
					if subCtx.Err() != nil {
						return
					}
					s.logger.Error("redis snapshot failed",
						slog.String("collection", string(collection)),
						slog.String("error", err.Error()),
					)
					select {
					case errorsChan <- err:
					default:
					}
					continue
				}
				if v, err := strconv.ParseUint(msg.Payload, 10, 64); err == nil && v > snap.Version {
					snap.Version = v
				}
				replacePending(eventsChan, snap)
			}
		}
	}()

	return storage.NewSubscription(eventsChan, errorsChan, cancelFunc), nil
}

// snapshot reads the collection together with its current version
func (s *Storage) snapshot(ctx context.Context, collection model.Collection) (*model.Snapshot, error) {
	snap, err := storage.LoadSnapshot(ctx, s, collection, s.clock.Now())
	if err != nil {
		return nil, err
	}
	v, err := s.client.Get(ctx, s.keys.version(collection)).Uint64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, err
	}
	snap.Version = v
	return snap, nil
}

// replacePending drops an undelivered snapshot before sending. Only the
// subscription goroutine sends, so the send never blocks.
func replacePending(ch chan *model.Snapshot, snap *model.Snapshot) {
	select {
	case <-ch:
	default:
	}
	ch <- snap
}
