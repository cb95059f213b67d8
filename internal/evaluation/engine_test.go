package evaluation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/replay"
	"github.com/blackwell-systems/assay/internal/store"
)

func newEngineFixture(t *testing.T) (*Engine, *store.DB, *store.Session) {
	t.Helper()
	db, err := store.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	sess, err := db.CreateSession(context.Background(), "cand-1")
	require.NoError(t, err)

	engine := NewEngine(db, replay.New(db, nil), DefaultWeights, analyzer.DefaultTunables)
	return engine, db, sess
}

func seedSession(t *testing.T, db *store.DB, sessionID string) {
	t.Helper()
	ctx := context.Background()
	appendEvent := func(typ event.Type, p event.Payload) {
		raw, err := event.Marshal(p)
		require.NoError(t, err)
		_, err = db.Append(ctx, sessionID, event.CategoryOf(typ), typ, raw, store.AppendOptions{})
		require.NoError(t, err)
	}

	appendEvent(event.TypeChatUser, &event.ChatMessage{Role: "user", Content: "The cache test fails on eviction. Should I lock before reading the index?"})
	appendEvent(event.TypeChatAssistant, &event.ChatMessage{Role: "assistant", Content: "Yes, take the lock first."})
	appendEvent(event.TypeCodeSnapshot, &event.CodeSnapshot{Path: "cache.js", Content: "// lru cache\nfunction evict() { return null; }\n"})
	appendEvent(event.TypeCodeTestRun, &event.TestRun{Passed: 2, Failed: 3})
	appendEvent(event.TypeTerminalCommand, &event.TerminalCommand{Command: "npm test"})
	appendEvent(event.TypeCodeSnapshot, &event.CodeSnapshot{Path: "cache.js", Content: "// lru cache\nfunction evict() { return oldest(); }\n"})
	appendEvent(event.TypeCodeTestRun, &event.TestRun{Passed: 5, Failed: 0})
	appendEvent(event.TypeQuestionCompleted, &event.QuestionCompleted{QuestionID: "q1", Score: 0.8})
}

func TestEngine_Evaluate(t *testing.T) {
	engine, db, sess := newEngineFixture(t)
	seedSession(t, db, sess.ID)
	ctx := context.Background()

	eval, err := engine.Evaluate(ctx, sess.ID)
	require.NoError(t, err)

	require.Len(t, eval.Dimensions, 4)
	require.Equal(t, analyzer.DimensionCodeQuality, eval.Dimensions[0].Dimension)
	require.Equal(t, analyzer.DimensionProblemSolving, eval.Dimensions[1].Dimension)
	require.Equal(t, analyzer.DimensionAICollaboration, eval.Dimensions[2].Dimension)
	require.Equal(t, analyzer.DimensionCommunication, eval.Dimensions[3].Dimension)

	require.Greater(t, eval.OverallScore, 0.0)
	require.LessOrEqual(t, eval.OverallScore, 100.0)
	require.NotEmpty(t, eval.Markers)
	require.NotEmpty(t, eval.Report)

	// The run is persisted and bracketed in the log.
	stored, err := engine.Latest(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, eval.ID, stored.ID)
	require.Equal(t, eval.OverallScore, stored.OverallScore)

	evalEvents, err := db.ReadEvents(ctx, sess.ID, store.Filter{Category: event.CategoryEvaluation})
	require.NoError(t, err)
	require.Len(t, evalEvents, 2)
	require.Equal(t, event.TypeEvaluationStarted, evalEvents[0].Type)
	require.Equal(t, event.TypeEvaluationComplete, evalEvents[1].Type)
}

func TestEngine_RegenerationIsDeterministic(t *testing.T) {
	engine, db, sess := newEngineFixture(t)
	seedSession(t, db, sess.ID)
	ctx := context.Background()

	first, err := engine.Evaluate(ctx, sess.ID)
	require.NoError(t, err)
	second, err := engine.Evaluate(ctx, sess.ID)
	require.NoError(t, err)

	// Identity and generation time differ; every judgment must not.
	require.Equal(t, first.Dimensions, second.Dimensions)
	require.Equal(t, first.OverallScore, second.OverallScore)
	require.Equal(t, first.Markers, second.Markers)
	require.NotEqual(t, first.ID, second.ID, "each run persists a fresh row")

	// Both rows survive; the latest wins on read.
	latest, err := engine.Latest(ctx, sess.ID)
	require.NoError(t, err)
	require.Equal(t, second.ID, latest.ID)
}

func TestEngine_MarkersStayOnTimelineAfterMoreActivity(t *testing.T) {
	engine, db, sess := newEngineFixture(t)
	seedSession(t, db, sess.ID)
	ctx := context.Background()

	_, err := engine.Evaluate(ctx, sess.ID)
	require.NoError(t, err)

	// Candidate activity after the first run pushes raw sequence numbers
	// past the count of linkable events; marker positions must stay
	// fractions of the scrubbable timeline.
	appendEvent := func(typ event.Type, p event.Payload) {
		raw, err := event.Marshal(p)
		require.NoError(t, err)
		_, err = db.Append(ctx, sess.ID, event.CategoryOf(typ), typ, raw, store.AppendOptions{})
		require.NoError(t, err)
	}
	appendEvent(event.TypeCodeSnapshot, &event.CodeSnapshot{Path: "cache.js", Content: "// lru cache\nfunction evict() { return oldest() ?? null; }\n"})
	appendEvent(event.TypeCodeTestRun, &event.TestRun{Passed: 6, Failed: 0})

	second, err := engine.Evaluate(ctx, sess.ID)
	require.NoError(t, err)
	require.NotEmpty(t, second.Markers)
	for _, m := range second.Markers {
		require.Greater(t, m.Position, 0.0)
		require.LessOrEqual(t, m.Position, 1.0)
	}
}

func TestEngine_EmptySessionDegradesGracefully(t *testing.T) {
	engine, _, sess := newEngineFixture(t)

	eval, err := engine.Evaluate(context.Background(), sess.ID)
	require.NoError(t, err, "missing signal lowers confidence, never fails")
	require.True(t, eval.Degraded())
	for _, d := range eval.Dimensions {
		require.Equal(t, 50.0, d.Score, "%s should sit at the neutral score", d.Dimension)
		require.LessOrEqual(t, d.Confidence, 0.3)
	}
}

func TestEngine_LatestWithoutEvaluation(t *testing.T) {
	engine, _, sess := newEngineFixture(t)
	_, err := engine.Latest(context.Background(), sess.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
