package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Rollover outcomes.
const (
	OutcomeNoop       = "noop"
	OutcomeActivated  = "activated"
	OutcomeClosedOnly = "closed_only"
	OutcomeIdle       = "idle"
	OutcomeError      = "error"
)

var (
	Rollovers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debate_rollovers_total",
		Help: "Rollover invocations by outcome.",
	}, []string{"outcome"})

	SettlementDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "debate_settlement_duration_seconds",
		Help:    "Time spent settling a question, including influence ranking.",
		Buckets: prometheus.DefBuckets,
	})

	Answers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debate_answers_total",
		Help: "Answers created, split by identity kind.",
	}, []string{"identity"})

	Likes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "debate_likes_total",
		Help: "Like and unlike operations that changed state.",
	}, []string{"action"})
)
