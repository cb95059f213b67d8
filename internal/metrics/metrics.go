// Package metrics exposes Prometheus counters for the recording and
// evaluation pipeline. The registry is private so the serve command controls
// exactly what is exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var registry = prometheus.NewRegistry()

var (
	// EventsAppended counts events appended to the log, by category.
	EventsAppended = promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
		Namespace: "assay",
		Name:      "events_appended_total",
		Help:      "Events appended to the session log.",
	}, []string{"category"})

	// AppendRetries counts transient append failures that were retried.
	AppendRetries = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "assay",
		Name:      "append_retries_total",
		Help:      "Transient event append failures that were retried.",
	})

	// AppendFallbacks counts appends that exhausted retries and were
	// recorded as system.error events.
	AppendFallbacks = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "assay",
		Name:      "append_fallbacks_total",
		Help:      "Appends recorded as system.error after retry exhaustion.",
	})

	// ArtifactsStored counts physical artifact writes.
	ArtifactsStored = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "assay",
		Name:      "artifacts_stored_total",
		Help:      "Artifacts physically written to the blob backend.",
	})

	// ArtifactDedupHits counts stores skipped because the content already
	// existed for the owner.
	ArtifactDedupHits = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "assay",
		Name:      "artifact_dedup_hits_total",
		Help:      "Artifact stores deduplicated by content hash.",
	})

	// Evaluations counts completed evaluation runs.
	Evaluations = promauto.With(registry).NewCounter(prometheus.CounterOpts{
		Namespace: "assay",
		Name:      "evaluations_total",
		Help:      "Completed evaluation runs.",
	})

	// StreamSubscribers tracks live stream subscriptions.
	StreamSubscribers = promauto.With(registry).NewGauge(prometheus.GaugeOpts{
		Namespace: "assay",
		Name:      "stream_subscribers",
		Help:      "Currently connected stream subscribers.",
	})
)

// Registry returns the gatherer backing /metrics.
func Registry() *prometheus.Registry {
	return registry
}
