// Package stream fans appended events out to live subscribers. A
// subscription replays the log from a cursor first, then switches to live
// delivery, so consumers never see a gap between catch-up and realtime.
package stream

import (
	"context"
	"sync"
	"time"

	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/metrics"
	"github.com/blackwell-systems/assay/internal/store"
)

// DefaultBuffer is the per-subscriber live buffer. A subscriber that falls
// this far behind is dropped rather than allowed to stall producers.
const DefaultBuffer = 256

// pollInterval bounds how stale a subscription can go when events are
// appended by another process. In-process appends arrive immediately
// through the append hook; the poll only catches writers sharing the
// database file.
const pollInterval = 500 * time.Millisecond

// Broadcaster fans out events per session. Install Publish as the store's
// append hook before producers start.
type Broadcaster struct {
	db     *store.DB
	buffer int

	mu   sync.RWMutex
	subs map[string]map[*subscriber]struct{}
}

type subscriber struct {
	live chan *event.Event

	// dropped is closed (once) when the live buffer overflows.
	dropped  chan struct{}
	dropOnce sync.Once
}

func (s *subscriber) drop() {
	s.dropOnce.Do(func() { close(s.dropped) })
}

// New creates a broadcaster over the store. buffer <= 0 selects the
// default.
func New(db *store.DB, buffer int) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		db:     db,
		buffer: buffer,
		subs:   make(map[string]map[*subscriber]struct{}),
	}
}

// Publish delivers an appended event to the session's live subscribers.
// Delivery never blocks: a subscriber with a full buffer is marked dropped
// and stops receiving.
func (b *Broadcaster) Publish(ev *event.Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for sub := range b.subs[ev.SessionID] {
		select {
		case sub.live <- ev:
		case <-sub.dropped:
		default:
			sub.drop()
		}
	}
}

// Subscribe attaches a consumer to the session's log. Events with sequence
// numbers greater than sinceSeq are replayed from storage first, then live
// events follow with no gap and no duplicates. The returned channel closes
// when ctx is cancelled or the subscriber falls too far behind; the
// consumer resumes by subscribing again from the last sequence it saw.
func (b *Broadcaster) Subscribe(ctx context.Context, sessionID string, sinceSeq int64) (<-chan *event.Event, error) {
	if _, err := b.db.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}

	sub := &subscriber{
		live:    make(chan *event.Event, b.buffer),
		dropped: make(chan struct{}),
	}

	// Register before reading the backlog: anything appended from here on
	// lands in the live buffer, and the pump deduplicates the overlap by
	// sequence number.
	b.mu.Lock()
	if b.subs[sessionID] == nil {
		b.subs[sessionID] = make(map[*subscriber]struct{})
	}
	b.subs[sessionID][sub] = struct{}{}
	b.mu.Unlock()
	metrics.StreamSubscribers.Inc()

	out := make(chan *event.Event, b.buffer)
	go b.pump(ctx, sessionID, sinceSeq, sub, out)
	return out, nil
}

func (b *Broadcaster) pump(ctx context.Context, sessionID string, sinceSeq int64, sub *subscriber, out chan<- *event.Event) {
	defer func() {
		b.unsubscribe(sessionID, sub)
		close(out)
		metrics.StreamSubscribers.Dec()
	}()

	last := sinceSeq
	if !b.replay(ctx, sessionID, sub, &last, out) {
		return
	}

	// Live events arrive through the append hook; the poll catches appends
	// made by other processes sharing the database file.
	poll := time.NewTicker(pollInterval)
	defer poll.Stop()

	for {
		select {
		case ev := <-sub.live:
			if ev.Sequence <= last {
				continue
			}
			select {
			case out <- ev:
				last = ev.Sequence
			case <-sub.dropped:
				return
			case <-ctx.Done():
				return
			}
		case <-poll.C:
			if !b.replay(ctx, sessionID, sub, &last, out) {
				return
			}
		case <-sub.dropped:
			return
		case <-ctx.Done():
			return
		}
	}
}

// replay forwards stored events after *last, advancing the cursor. It
// reports false when the pump should stop: cancellation, storage error,
// or a consumer that stopped reading.
func (b *Broadcaster) replay(ctx context.Context, sessionID string, sub *subscriber, last *int64, out chan<- *event.Event) bool {
	backlog, err := b.db.ReadEvents(ctx, sessionID, store.Filter{SinceSeq: *last})
	if err != nil {
		return false
	}
	for _, ev := range backlog {
		select {
		case out <- ev:
			*last = ev.Sequence
		case <-sub.dropped:
			return false
		case <-ctx.Done():
			return false
		}
	}
	return true
}

func (b *Broadcaster) unsubscribe(sessionID string, sub *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if set, ok := b.subs[sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(b.subs, sessionID)
		}
	}
}
