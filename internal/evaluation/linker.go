package evaluation

import (
	"github.com/blackwell-systems/assay/internal/analyzer"
	"github.com/blackwell-systems/assay/internal/event"
)

// LinkEvidence resolves every evidence item across the dimension scores to
// the concrete event it came from and returns the markers.
//
// Resolution order: an exact event-ID match wins; otherwise the event whose
// timestamp is closest to the evidence timestamp without exceeding it, with
// equal timestamps broken by the highest sequence number. Evidence with no
// resolvable event stays visible in the evaluation's evidence list but
// yields no marker, by design, not as a failure.
//
// Marker positions are fractions of the linkable log: rank within events,
// not the raw sequence number. Sequence numbers keep climbing across the
// evaluation and system events that the caller filters out, so a raw
// sequence divided by len(events) would drift past 1.0 as soon as activity
// followed a prior evaluation run.
func LinkEvidence(scores []analyzer.DimensionScore, events []*event.Event) []Marker {
	byID := make(map[string]*event.Event, len(events))
	rank := make(map[string]int, len(events))
	for i, ev := range events {
		byID[ev.ID] = ev
		rank[ev.ID] = i
	}

	var markers []Marker
	for _, ds := range scores {
		for i, item := range ds.Evidence {
			ev := resolve(item, byID, events)
			if ev == nil {
				continue
			}
			m := Marker{
				Dimension:     ds.Dimension,
				EvidenceIndex: i,
				EventID:       ev.ID,
				Sequence:      ev.Sequence,
				Importance:    item.Importance,
			}
			if n := len(events); n > 0 {
				m.Position = float64(rank[ev.ID]+1) / float64(n)
			}
			markers = append(markers, m)
		}
	}
	return markers
}

// resolve finds the event backing one evidence item, or nil.
func resolve(item analyzer.Evidence, byID map[string]*event.Event, events []*event.Event) *event.Event {
	if item.EventID != "" {
		if ev, ok := byID[item.EventID]; ok {
			return ev
		}
	}
	if item.Timestamp.IsZero() {
		return nil
	}

	// Latest event not after the evidence timestamp. Events arrive in
	// ascending sequence order, so the last qualifying one wins ties on
	// equal timestamps.
	var best *event.Event
	for _, ev := range events {
		if ev.Timestamp.After(item.Timestamp) {
			continue
		}
		if best == nil || ev.Timestamp.After(best.Timestamp) ||
			(ev.Timestamp.Equal(best.Timestamp) && ev.Sequence > best.Sequence) {
			best = ev
		}
	}
	return best
}
