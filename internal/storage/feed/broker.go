// Package feed fans collection snapshots out to in-process subscribers.
// Each subscriber holds at most one pending snapshot: a slow reader only
// ever sees the latest state.
package feed

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mcoot/charsheet/internal/dependencies/clock"
	"github.com/mcoot/charsheet/internal/model"
	"github.com/mcoot/charsheet/internal/storage"
)

// Broker tracks subscribers per collection and pushes fresh snapshots to
// them after every write
type Broker struct {
	source storage.SnapshotSource
	clock  clock.Clock
	logger *slog.Logger

	// pubMu serialises snapshot loads so versions reach subscribers in order
	pubMu    sync.Mutex
	mu       sync.Mutex
	subs     map[model.Collection]map[*subscriber]struct{}
	versions map[model.Collection]uint64
	closed   bool
}

type subscriber struct {
	mu     sync.Mutex
	events chan *model.Snapshot
	errors chan error
	closed bool
}

// New creates a Broker that reads snapshots from source
func New(source storage.SnapshotSource, clk clock.Clock, logger *slog.Logger) *Broker {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Broker{
		source:   source,
		clock:    clk,
		logger:   logger,
		subs:     make(map[model.Collection]map[*subscriber]struct{}),
		versions: make(map[model.Collection]uint64),
	}
}

// Subscribe registers a subscriber and delivers the current snapshot
func (b *Broker) Subscribe(ctx context.Context, collection model.Collection) (*storage.Subscription, error) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	snap, err := b.load(ctx, collection)
	if err != nil {
		return nil, err
	}

	sub := &subscriber{
		events: make(chan *model.Snapshot, 1),
		errors: make(chan error, 1),
	}
	sub.offer(snap)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		sub.close()
		return nil, ErrClosed
	}
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[*subscriber]struct{})
	}
	b.subs[collection][sub] = struct{}{}
	count := len(b.subs[collection])
	b.mu.Unlock()

	b.logger.Debug("feed subscriber added",
		slog.String("collection", string(collection)),
		slog.Int("subscribers", count),
	)

	subCtx, cancel := context.WithCancel(ctx)
	go func() {
		<-subCtx.Done()
		b.remove(collection, sub)
	}()

	return storage.NewSubscription(sub.events, sub.errors, cancel), nil
}

// Publish loads the collection once and offers it to every subscriber.
// A failed load is reported on each subscriber's error channel.
func (b *Broker) Publish(ctx context.Context, collection model.Collection) {
	b.pubMu.Lock()
	defer b.pubMu.Unlock()

	subs := b.snapshotSubscribers(collection)
	if len(subs) == 0 {
		return
	}

	snap, err := b.load(ctx, collection)
	if err != nil {
		b.logger.Error("feed snapshot failed",
			slog.String("collection", string(collection)),
			slog.String("error", err.Error()),
		)
		for _, s := range subs {
			s.fail(err)
		}
		return
	}
	for _, s := range subs {
		s.offer(snap)
	}
}

// Close ends every subscription
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for collection, subs := range b.subs {
		for s := range subs {
			s.close()
		}
		delete(b.subs, collection)
	}
}

// Subscribers returns the number of live subscribers on a collection
func (b *Broker) Subscribers(collection model.Collection) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[collection])
}

func (b *Broker) load(ctx context.Context, collection model.Collection) (*model.Snapshot, error) {
	snap, err := storage.LoadSnapshot(ctx, b.source, collection, b.clock.Now())
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	b.versions[collection]++
	snap.Version = b.versions[collection]
	b.mu.Unlock()
	return snap, nil
}

func (b *Broker) snapshotSubscribers(collection model.Collection) []*subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]*subscriber, 0, len(b.subs[collection]))
	for s := range b.subs[collection] {
		out = append(out, s)
	}
	return out
}

func (b *Broker) remove(collection model.Collection, sub *subscriber) {
	b.mu.Lock()
	if subs, ok := b.subs[collection]; ok {
		delete(subs, sub)
		if len(subs) == 0 {
			delete(b.subs, collection)
		}
	}
	b.mu.Unlock()
	sub.close()
}

// offer replaces any undelivered snapshot with snap
func (s *subscriber) offer(snap *model.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case <-s.events:
	default:
	}
	s.events <- snap
}

func (s *subscriber) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.errors <- err:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.events)
	close(s.errors)
}
