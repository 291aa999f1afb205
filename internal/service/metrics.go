package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Transition outcomes used as the "outcome" label.
const (
	outcomeAdvanced           = "advanced"
	outcomeFinished           = "finished"
	outcomeMissingItem        = "missing_item"
	outcomeStorageUnavailable = "storage_unavailable"
)

// Metrics holds the Prometheus collectors of the progression engine.
type Metrics struct {
	transitions   *prometheus.CounterVec
	chanceRolls   *prometheus.CounterVec
	sessions      *prometheus.CounterVec
	statsFailures *prometheus.CounterVec
}

// NewMetrics registers the engine collectors in reg.
// Мы используем promauto.With(reg), чтобы не трогать глобальный DefaultRegistry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	return &Metrics{
		transitions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_transitions_total",
				Help: "Total number of advance attempts, partitioned by outcome.",
			},
			[]string{"outcome"},
		),
		chanceRolls: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_chance_rolls_total",
				Help: "Total number of chance branches resolved, partitioned by result.",
			},
			[]string{"result"},
		),
		sessions: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_sessions_total",
				Help: "Total number of start-or-resume calls, partitioned by kind (new, resumed).",
			},
			[]string{"kind"},
		),
		statsFailures: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "quest_selection_stats_failures_total",
				Help: "Total number of selection statistics that could not be recorded.",
			},
			[]string{"reason"},
		),
	}
}

func (m *Metrics) transition(outcome string) {
	if m != nil {
		m.transitions.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) chance(success bool) {
	if m == nil {
		return
	}
	if success {
		m.chanceRolls.WithLabelValues("success").Inc()
	} else {
		m.chanceRolls.WithLabelValues("fail").Inc()
	}
}

func (m *Metrics) session(kind string) {
	if m != nil {
		m.sessions.WithLabelValues(kind).Inc()
	}
}

// StatsFailure counts a swallowed statistics error.
func (m *Metrics) StatsFailure(reason string) {
	if m != nil {
		m.statsFailures.WithLabelValues(reason).Inc()
	}
}
