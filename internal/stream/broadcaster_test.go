package stream

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/assay/internal/backoff"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/store"
)

func newStreamFixture(t *testing.T, buffer int) (*Broadcaster, *store.DB, *store.Session) {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := db.CreateSession(context.Background(), "cand-1")
	require.NoError(t, err)

	b := New(db, buffer)
	db.SetAppendHook(b.Publish)
	return b, db, sess
}

func appendChat(t *testing.T, db *store.DB, sessionID, text string) *event.Event {
	t.Helper()
	raw, err := event.Marshal(&event.ChatMessage{Role: "user", Content: text})
	require.NoError(t, err)
	ev, err := db.Append(context.Background(), sessionID, event.CategoryChat, event.TypeChatUser, raw, store.AppendOptions{})
	require.NoError(t, err)
	return ev
}

func receive(t *testing.T, ch <-chan *event.Event) *event.Event {
	t.Helper()
	select {
	case ev, ok := <-ch:
		require.True(t, ok, "channel closed before expected event")
		return ev
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func TestSubscribe_BacklogThenLive(t *testing.T) {
	b, db, sess := newStreamFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 3; i++ {
		appendChat(t, db, sess.ID, "before subscribe")
	}

	ch, err := b.Subscribe(ctx, sess.ID, 0)
	require.NoError(t, err)

	for want := int64(1); want <= 3; want++ {
		require.Equal(t, want, receive(t, ch).Sequence)
	}

	appendChat(t, db, sess.ID, "live one")
	appendChat(t, db, sess.ID, "live two")

	require.Equal(t, int64(4), receive(t, ch).Sequence)
	require.Equal(t, int64(5), receive(t, ch).Sequence)
}

func TestSubscribe_ResumesFromCursor(t *testing.T) {
	b, db, sess := newStreamFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	for i := 0; i < 5; i++ {
		appendChat(t, db, sess.ID, "seed")
	}

	ch, err := b.Subscribe(ctx, sess.ID, 3)
	require.NoError(t, err)

	require.Equal(t, int64(4), receive(t, ch).Sequence)
	require.Equal(t, int64(5), receive(t, ch).Sequence)
}

func TestSubscribe_UnknownSession(t *testing.T) {
	b, _, _ := newStreamFixture(t, 0)
	_, err := b.Subscribe(context.Background(), "no-such-session", 0)
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestSubscribe_CancelClosesChannel(t *testing.T) {
	b, _, sess := newStreamFixture(t, 0)
	ctx, cancel := context.WithCancel(context.Background())

	ch, err := b.Subscribe(ctx, sess.ID, 0)
	require.NoError(t, err)
	cancel()

	select {
	case _, ok := <-ch:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("channel did not close after cancel")
	}
}

func TestSubscribe_SlowConsumerIsDropped(t *testing.T) {
	b, db, sess := newStreamFixture(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := b.Subscribe(ctx, sess.ID, 0)
	require.NoError(t, err)

	// Nobody reads: the tiny buffers fill, the overflow marks the
	// subscriber dropped, and later events are discarded.
	const published = 10
	for i := 0; i < published; i++ {
		appendChat(t, db, sess.ID, "flood")
	}

	received := 0
	for range ch {
		received++
	}
	require.Less(t, received, published, "a dropped subscriber must miss events")

	// Resuming from the last delivered sequence fills the gap.
	resumed, err := b.Subscribe(ctx, sess.ID, int64(received))
	require.NoError(t, err)
	require.Equal(t, int64(received+1), receive(t, resumed).Sequence)
}

func TestFollow_ResumesAcrossDrops(t *testing.T) {
	b, db, sess := newStreamFixture(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const total = 20
	policy := backoff.Policy{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1, MaxAttempts: 1}

	var seen []int64
	errDone := errors.New("done")
	done := make(chan error, 1)
	go func() {
		done <- b.Follow(ctx, policy, sess.ID, 0, func(ev *event.Event) error {
			seen = append(seen, ev.Sequence)
			if int64(len(seen)) == total {
				return errDone
			}
			// Slow consumer: force the live buffer to overflow and drop us.
			time.Sleep(2 * time.Millisecond)
			return nil
		})
	}()

	for i := 0; i < total; i++ {
		appendChat(t, db, sess.ID, "burst")
	}

	select {
	case err := <-done:
		require.ErrorIs(t, err, errDone)
	case <-time.After(5 * time.Second):
		t.Fatal("Follow did not deliver all events")
	}

	require.Len(t, seen, total)
	for i, seq := range seen {
		require.Equal(t, int64(i+1), seq, "exactly-once in-order delivery across drops")
	}
}

func TestFollow_GivesUpAfterFruitlessDrops(t *testing.T) {
	b, _, sess := newStreamFixture(t, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Kill every subscription as soon as it registers. The log is empty,
	// so no resubscription ever delivers an event and the retry budget
	// must run out instead of looping forever.
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		for {
			select {
			case <-stop:
				return
			default:
			}
			b.mu.RLock()
			for _, set := range b.subs {
				for sub := range set {
					sub.drop()
				}
			}
			b.mu.RUnlock()
			time.Sleep(time.Millisecond)
		}
	}()

	policy := backoff.Policy{InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Multiplier: 1, MaxAttempts: 2}
	delivered := 0
	err := b.Follow(ctx, policy, sess.ID, 0, func(*event.Event) error {
		delivered++
		return nil
	})
	require.ErrorIs(t, err, ErrTooManyDrops)
	require.Zero(t, delivered)
}

func TestCursorFrom(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		query   string
		want    int64
		wantErr bool
	}{
		{name: "empty defaults to zero"},
		{name: "query cursor", query: "?since=42", want: 42},
		{name: "header wins over query", header: "7", query: "?since=42", want: 7},
		{name: "garbage", query: "?since=abc", wantErr: true},
		{name: "negative", query: "?since=-1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/sessions/s1/events"+tt.query, nil)
			if tt.header != "" {
				r.Header.Set("Last-Event-ID", tt.header)
			}
			got, err := cursorFrom(r)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}
