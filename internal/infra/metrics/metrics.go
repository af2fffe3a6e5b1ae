// Package metrics provides Prometheus metrics for the sandbox pipeline:
// counters, gauges, and histograms for battles, admissions, spend, and
// the kill switch.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Battles ────────────────────────────────────────────────────────────────

// BattlesCompleted tracks persisted battles by model tier.
var BattlesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sandbox",
	Name:      "battles_completed_total",
	Help:      "Total battles persisted, by model tier.",
}, []string{"tier"})

// BattlesFailed tracks per-unit failures by reason.
var BattlesFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sandbox",
	Name:      "battles_failed_total",
	Help:      "Total battle units that failed, by reason.",
}, []string{"reason"})

// BattleDuration tracks one battle's wall time in seconds.
var BattleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sandbox",
	Name:      "battle_duration_seconds",
	Help:      "Wall time of one simulated negotiation including scoring.",
	Buckets:   []float64{1, 2.5, 5, 10, 30, 60, 120},
})

// BattleScores tracks the referee score distribution.
var BattleScores = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sandbox",
	Name:      "battle_referee_score",
	Help:      "Referee score distribution (0-100).",
	Buckets:   []float64{10, 25, 50, 70, 80, 90, 95, 100},
})

// ─── Admission Control ──────────────────────────────────────────────────────

// AdmissionsRefused tracks refused units by reason (halted, budget_exceeded).
var AdmissionsRefused = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "sandbox",
	Name:      "admissions_refused_total",
	Help:      "Battle admissions refused, by reason.",
}, []string{"reason"})

// KillSwitchActive reports whether the kill switch is engaged (1/0).
var KillSwitchActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sandbox",
	Name:      "kill_switch_active",
	Help:      "Whether the emergency kill switch is active (1) or not (0).",
})

// ─── Budget ─────────────────────────────────────────────────────────────────

// DailySpend reports today's sandbox spend in USD as last classified.
var DailySpend = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "sandbox",
	Name:      "daily_spend_usd",
	Help:      "Spend for the current UTC day as of the last classification.",
})

// BatchCost tracks the total cost of one training batch.
var BatchCost = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "sandbox",
	Name:      "batch_cost_usd",
	Help:      "Total cost of one training batch in USD.",
	Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
})

// ─── Scenarios ──────────────────────────────────────────────────────────────

// ScenariosRanked counts completed scenario rankings.
var ScenariosRanked = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sandbox",
	Name:      "scenarios_ranked_total",
	Help:      "Scenario injections that completed breakthrough ranking.",
})

// TacticsPromoted counts promotions into the production tactic set.
var TacticsPromoted = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "sandbox",
	Name:      "tactics_promoted_total",
	Help:      "Tactics promoted to production.",
})
