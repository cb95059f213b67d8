package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/event"
	"github.com/blackwell-systems/assay/internal/metrics"
	"github.com/blackwell-systems/assay/internal/replay"
	"github.com/blackwell-systems/assay/internal/store"
)

// Engine runs the full evaluation pipeline: reconstruct inputs from the
// log, run the four analyzers in parallel, aggregate, link evidence, render
// the report, and persist a fresh evaluation row.
type Engine struct {
	db       *store.DB
	replay   *replay.Service
	weights  Weights
	tunables analyzer.Tunables
}

// NewEngine creates an evaluation engine.
func NewEngine(db *store.DB, replaySvc *replay.Service, weights Weights, tunables analyzer.Tunables) *Engine {
	return &Engine{db: db, replay: replaySvc, weights: weights, tunables: tunables}
}

// Evaluate computes (or recomputes) the evaluation for a session.
// Regeneration against an unchanged log yields identical scores, evidence,
// and markers. Analyzer degradation never fails the run: if every
// dimension is short on signal the result is a low-confidence evaluation,
// not an error.
func (e *Engine) Evaluate(ctx context.Context, sessionID string) (*Evaluation, error) {
	inputs, err := e.replay.BuildInputs(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	all, err := e.db.ReadEvents(ctx, sessionID, store.Filter{})
	if err != nil {
		return nil, fmt.Errorf("reading events: %w", err)
	}

	// Evidence only ever points at candidate activity. Evaluation and
	// system events are excluded from linking and from the timeline
	// denominator so that re-running an evaluation, which itself appends
	// evaluation events, reproduces identical markers.
	events := make([]*event.Event, 0, len(all))
	for _, ev := range all {
		if ev.Category == event.CategoryEvaluation || ev.Category == event.CategorySystem {
			continue
		}
		events = append(events, ev)
	}

	startPayload, _ := event.Marshal(&event.EvaluationStarted{TriggeredBy: "engine"})
	if _, err := e.db.Append(ctx, sessionID, event.CategoryEvaluation, event.TypeEvaluationStarted, startPayload, store.AppendOptions{}); err != nil {
		return nil, fmt.Errorf("recording evaluation start: %w", err)
	}

	// The analyzers are pure functions over an immutable view, so the four
	// of them run in parallel with no shared mutable state.
	scores := make([]analyzer.DimensionScore, 4)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error { scores[0] = analyzer.AnalyzeCodeQuality(inputs, e.tunables); return nil })
	g.Go(func() error { scores[1] = analyzer.AnalyzeProblemSolving(inputs, e.tunables); return nil })
	g.Go(func() error { scores[2] = analyzer.AnalyzeAICollaboration(inputs, e.tunables); return nil })
	g.Go(func() error { scores[3] = analyzer.AnalyzeCommunication(inputs, e.tunables); return nil })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	eval := &Evaluation{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		GeneratedAt: time.Now().UTC(),
		Dimensions:  scores,
	}
	eval.OverallScore = Aggregate(scores, e.weights)
	eval.Markers = LinkEvidence(scores, events)
	eval.Report = RenderReport(eval)

	payload, err := json.Marshal(eval)
	if err != nil {
		return nil, fmt.Errorf("encoding evaluation: %w", err)
	}
	if err := e.db.SaveEvaluation(ctx, &store.EvaluationRow{
		ID:           eval.ID,
		SessionID:    sessionID,
		GeneratedAt:  eval.GeneratedAt,
		OverallScore: eval.OverallScore,
		Payload:      payload,
	}); err != nil {
		return nil, err
	}

	donePayload, _ := event.Marshal(&event.EvaluationComplete{
		EvaluationID: eval.ID,
		OverallScore: eval.OverallScore,
	})
	if _, err := e.db.Append(ctx, sessionID, event.CategoryEvaluation, event.TypeEvaluationComplete, donePayload, store.AppendOptions{}); err != nil {
		return nil, fmt.Errorf("recording evaluation completion: %w", err)
	}

	metrics.Evaluations.Inc()
	return eval, nil
}

// Latest loads the most recent persisted evaluation for a session.
// ErrNotFound distinguishes "not yet evaluated" from a failed run.
func (e *Engine) Latest(ctx context.Context, sessionID string) (*Evaluation, error) {
	row, err := e.db.LatestEvaluation(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	var eval Evaluation
	if err := json.Unmarshal(row.Payload, &eval); err != nil {
		return nil, fmt.Errorf("decoding stored evaluation: %w", err)
	}
	return &eval, nil
}
