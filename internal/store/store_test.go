package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/assay/internal/event"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func chatPayload(t *testing.T, role, content string) json.RawMessage {
	t.Helper()
	raw, err := event.Marshal(&event.ChatMessage{Role: role, Content: content})
	require.NoError(t, err)
	return raw
}

func TestAppend_AssignsSequentialNumbers(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	for i := 1; i <= 5; i++ {
		ev, err := db.Append(ctx, sess.ID, event.CategoryChat, event.TypeChatUser,
			chatPayload(t, "user", fmt.Sprintf("message %d", i)), AppendOptions{})
		require.NoError(t, err)
		require.Equal(t, int64(i), ev.Sequence)
	}
}

func TestAppend_ConcurrentProducersGapless(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	const producers = 5
	const perProducer = 10

	var wg sync.WaitGroup
	errs := make(chan error, producers*perProducer)
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_, err := db.Append(ctx, sess.ID, event.CategoryChat, event.TypeChatUser,
					chatPayload(t, "user", fmt.Sprintf("p%d-%d", p, i)), AppendOptions{})
				if err != nil {
					errs <- err
				}
			}
		}(p)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent append failed: %v", err)
	}

	events, err := db.ReadEvents(ctx, sess.ID, Filter{})
	require.NoError(t, err)
	require.Len(t, events, producers*perProducer)

	// Strictly increasing, gapless, starting at 1.
	for i, ev := range events {
		require.Equal(t, int64(i+1), ev.Sequence, "gap or duplicate at index %d", i)
	}
}

func TestAppend_IsolatedPerSession(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	a, err := db.CreateSession(ctx, "cand-a")
	require.NoError(t, err)
	b, err := db.CreateSession(ctx, "cand-b")
	require.NoError(t, err)

	evA, err := db.Append(ctx, a.ID, event.CategoryChat, event.TypeChatUser, chatPayload(t, "user", "hi"), AppendOptions{})
	require.NoError(t, err)
	evB, err := db.Append(ctx, b.ID, event.CategoryChat, event.TypeChatUser, chatPayload(t, "user", "hi"), AppendOptions{})
	require.NoError(t, err)

	// Each session starts its own sequence at 1.
	require.Equal(t, int64(1), evA.Sequence)
	require.Equal(t, int64(1), evB.Sequence)
}

func TestAppend_RejectsInvalidPayload(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	bad, err := event.Marshal(&event.QuestionCompleted{QuestionID: "q1", Score: 1.5})
	require.NoError(t, err)
	_, err = db.Append(ctx, sess.ID, event.CategoryQuestion, event.TypeQuestionCompleted, bad, AppendOptions{})
	var verr *event.ValidationError
	require.ErrorAs(t, err, &verr)

	// A rejected append consumes no sequence number.
	last, err := db.LastSequence(ctx, sess.ID)
	require.NoError(t, err)
	require.Zero(t, last)
}

func TestAppend_UnknownSession(t *testing.T) {
	db := newTestDB(t)
	_, err := db.Append(context.Background(), "nope", event.CategoryChat, event.TypeChatUser,
		chatPayload(t, "user", "hi"), AppendOptions{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestReadEvents_Filters(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	_, err = db.Append(ctx, sess.ID, event.CategoryChat, event.TypeChatUser, chatPayload(t, "user", "q"), AppendOptions{})
	require.NoError(t, err)
	cmdRaw, err := event.Marshal(&event.TerminalCommand{Command: "npm test"})
	require.NoError(t, err)
	_, err = db.Append(ctx, sess.ID, event.CategoryTerminal, event.TypeTerminalCommand, cmdRaw, AppendOptions{})
	require.NoError(t, err)
	_, err = db.Append(ctx, sess.ID, event.CategoryChat, event.TypeChatAssistant, chatPayload(t, "assistant", "a"), AppendOptions{})
	require.NoError(t, err)

	chat, err := db.ReadEvents(ctx, sess.ID, Filter{Category: event.CategoryChat})
	require.NoError(t, err)
	require.Len(t, chat, 2)

	users, err := db.ReadEvents(ctx, sess.ID, Filter{EventTypes: []event.Type{event.TypeChatUser}})
	require.NoError(t, err)
	require.Len(t, users, 1)

	since, err := db.ReadEvents(ctx, sess.ID, Filter{SinceSeq: 1})
	require.NoError(t, err)
	require.Len(t, since, 2)
	require.Equal(t, int64(2), since[0].Sequence)

	bounded, err := db.ReadEvents(ctx, sess.ID, Filter{UntilSeq: 2})
	require.NoError(t, err)
	require.Len(t, bounded, 2)

	limited, err := db.ReadEvents(ctx, sess.ID, Filter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestNearestCheckpoint(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	qRaw, err := event.Marshal(&event.QuestionStarted{QuestionID: "q1"})
	require.NoError(t, err)

	// seq 1: checkpoint, seq 2-3: plain, seq 4: checkpoint.
	_, err = db.Append(ctx, sess.ID, event.CategoryQuestion, event.TypeQuestionStarted, qRaw, AppendOptions{Checkpoint: true})
	require.NoError(t, err)
	_, err = db.Append(ctx, sess.ID, event.CategoryChat, event.TypeChatUser, chatPayload(t, "user", "a"), AppendOptions{})
	require.NoError(t, err)
	_, err = db.Append(ctx, sess.ID, event.CategoryChat, event.TypeChatUser, chatPayload(t, "user", "b"), AppendOptions{})
	require.NoError(t, err)
	q2Raw, err := event.Marshal(&event.QuestionStarted{QuestionID: "q2"})
	require.NoError(t, err)
	_, err = db.Append(ctx, sess.ID, event.CategoryQuestion, event.TypeQuestionStarted, q2Raw, AppendOptions{Checkpoint: true})
	require.NoError(t, err)

	cp, err := db.NearestCheckpoint(ctx, sess.ID, 3)
	require.NoError(t, err)
	require.Equal(t, int64(1), cp)

	cp, err = db.NearestCheckpoint(ctx, sess.ID, 4)
	require.NoError(t, err)
	require.Equal(t, int64(4), cp)
}

func TestCompleteSession_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	first, err := db.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, SessionCompleted, first.State)
	require.NotNil(t, first.CompletedAt)

	again, err := db.CompleteSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, first.CompletedAt.Unix(), again.CompletedAt.Unix())
}

func TestGetSession_NotFound(t *testing.T) {
	db := newTestDB(t)
	_, err := db.GetSession(context.Background(), "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestEvaluations_FreshRowsNeverMutated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	sess, err := db.CreateSession(ctx, "cand-1")
	require.NoError(t, err)

	_, err = db.LatestEvaluation(ctx, sess.ID)
	require.ErrorIs(t, err, ErrNotFound, "unevaluated session must be distinguishable")

	require.NoError(t, db.SaveEvaluation(ctx, &EvaluationRow{
		ID: "e1", SessionID: sess.ID, GeneratedAt: time.Now().UTC(), OverallScore: 60, Payload: []byte(`{}`),
	}))
	require.NoError(t, db.SaveEvaluation(ctx, &EvaluationRow{
		ID: "e2", SessionID: sess.ID, GeneratedAt: time.Now().UTC().Add(time.Second), OverallScore: 72, Payload: []byte(`{}`),
	}))

	latest, err := db.LatestEvaluation(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, "e2", latest.ID)
	require.Equal(t, 72.0, latest.OverallScore)
}

func TestInsertArtifact_ConflictIsNoOp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	row := &ArtifactRow{OwnerID: "cand-1", Checksum: "abc", Size: 10, CompressedSize: 5}
	require.NoError(t, db.InsertArtifact(ctx, row))
	require.NoError(t, db.InsertArtifact(ctx, row))

	got, err := db.GetArtifact(ctx, "cand-1", "abc")
	require.NoError(t, err)
	require.Equal(t, int64(10), got.Size)
}

func TestIsTransient_RejectsOrdinaryErrors(t *testing.T) {
	require.False(t, IsTransient(errors.New("nope")))
	require.False(t, IsTransient(nil))
}
