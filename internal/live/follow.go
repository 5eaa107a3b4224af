package live

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

// Collections followed by the hub
var Collections = []model.Collection{
	model.CollectionCharacters,
	model.CollectionUsers,
	model.CollectionConfig,
}

// Resubscription backoff bounds
const (
	resubscribeMinDelay = 100 * time.Millisecond
	resubscribeMaxDelay = 5 * time.Second
)

// Follow subscribes to every collection and publishes each snapshot to
// the hub until ctx is cancelled or the storage is closed. A subscription
// that ends early is re-established with backoff. Feed errors are logged;
// the subscription keeps running.
func Follow(ctx context.Context, store storage.Storage, hub *Hub, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	merged := make(chan *model.Snapshot)
	ended := make(chan model.Collection, len(Collections))

	for _, collection := range Collections {
		sub, err := store.Subscribe(ctx, collection)
		if err != nil {
			return err
		}
		go pump(ctx, sub, collection, merged, ended, logger)
	}

	for {
		select {
		case snap := <-merged:
			hub.Publish(snap)
		case collection := <-ended:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			sub, err := resubscribe(ctx, store, collection, logger)
			if errors.Is(err, storage.ErrClosed) {
				logger.Info("live feed stopped, storage closed")
				return nil
			}
			if err != nil {
				return err
			}
			go pump(ctx, sub, collection, merged, ended, logger)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// resubscribe retries Subscribe until it succeeds, the storage reports it
// is closed, or ctx ends.
func resubscribe(
	ctx context.Context,
	store storage.Storage,
	collection model.Collection,
	logger *slog.Logger,
) (*storage.Subscription, error) {
	delay := resubscribeMinDelay
	for attempt := 1; ; attempt++ {
		logger.Warn("live feed ended, resubscribing",
			slog.String("collection", string(collection)),
			slog.Int("attempt", attempt),
			slog.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		sub, err := store.Subscribe(ctx, collection)
		if err == nil {
			return sub, nil
		}
		if errors.Is(err, storage.ErrClosed) || ctx.Err() != nil {
			return nil, err
		}
		logger.Error("live feed resubscribe failed",
			slog.String("collection", string(collection)),
			slog.Any("error", err))
		delay = min(delay*2, resubscribeMaxDelay)
	}
}

func pump(
	ctx context.Context,
	sub *storage.Subscription,
	collection model.Collection,
	out chan<- *model.Snapshot,
	ended chan<- model.Collection,
	logger *slog.Logger,
) {
	defer sub.Close()
	defer func() { ended <- collection }()

	errs := sub.Errors()
	for {
		select {
		case snap, ok := <-sub.Events():
			if !ok {
				return
			}
			select {
			case out <- snap:
			case <-ctx.Done():
				return
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Error("live feed error",
				slog.String("collection", string(collection)),
				slog.Any("error", err))
		}
	}
}
