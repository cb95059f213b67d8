package stream

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/event"
)

// ErrTooManyDrops is returned by Follow when consecutive resubscriptions
// keep getting dropped without delivering a single event.
var ErrTooManyDrops = errors.New("stream: subscription dropped repeatedly without progress")

// Follow consumes a session's events through handler, resubscribing with
// backoff whenever the subscription drops. Each resubscription resumes
// from the last delivered sequence number, so the handler sees every event
// exactly once even across drops.
//
// A drop that delivered events resets the retry budget; consecutive drops
// that delivered nothing consume it, with the delay growing across them,
// until Follow gives up with ErrTooManyDrops.
//
// Follow returns when ctx is cancelled, handler returns an error, or the
// budget is exhausted.
func (b *Broadcaster) Follow(ctx context.Context, policy backoff.Policy, sessionID string, sinceSeq int64, handler func(*event.Event) error) error {
	last := sinceSeq
	drops := 0
	for {
		events, err := b.Subscribe(ctx, sessionID, last)
		if err != nil {
			return err
		}

		progressed := false
		for ev := range events {
			if err := handler(ev); err != nil {
				return err
			}
			last = ev.Sequence
			progressed = true
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		// Subscription dropped.
		if progressed {
			drops = 0
		}
		drops++
		if drops > policy.Attempts() {
			return fmt.Errorf("%w: gave up after %d attempts at sequence %d", ErrTooManyDrops, policy.Attempts(), last)
		}
		timer := time.NewTimer(policy.Delay(drops - 1))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
