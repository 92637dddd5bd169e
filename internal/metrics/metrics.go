// Package metrics defines the Prometheus collectors for vote traffic,
// summary generation, and the stats cache.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Vote metrics
var (
	// VotesSubmittedTotal tracks vote submissions by value and outcome.
	VotesSubmittedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_submitted_total",
			Help: "Total vote submissions by vote value and outcome (created/updated)",
		},
		[]string{"value", "outcome"},
	)

	// VoteUpsertRetriesTotal counts transparent retries of the vote upsert.
	VoteUpsertRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "vote_upsert_retries_total",
			Help: "Total transparent retries of the vote upsert after a storage conflict",
		},
	)

	// VoteSubmitDuration tracks vote submission latency in seconds.
	VoteSubmitDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "vote_submit_duration_seconds",
			Help:    "Vote submission duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)
)

// Summary metrics
var (
	// SummariesGeneratedTotal counts personal verdict generations by label.
	SummariesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bill_summaries_generated_total",
			Help: "Total personal bill summaries generated, by verdict label",
		},
		[]string{"verdict"},
	)

	// SummaryCacheHitsTotal counts personal summaries served from storage
	// without regeneration.
	SummaryCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bill_summary_cache_hits_total",
			Help: "Total personal bill summaries served from the stored cache",
		},
	)
)

// Stats cache metrics
var (
	// StatsCacheRequestsTotal tracks bill-stats cache lookups by result
	// (hit/miss/error).
	StatsCacheRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stats_cache_requests_total",
			Help: "Bill stats cache lookups by result",
		},
		[]string{"result"},
	)
)
