package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus collectors for the settlement core. Registered on the default
// registry and served by the admin HTTP server at /metrics.

var (
	TotalLocked = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_total_locked_zec",
		Help: "Sum of completed deposits (gross ZEC locked).",
	})
	TotalMinted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_total_minted_wzec",
		Help: "Sum of completed mints (net wZEC issued).",
	})
	TotalBurned = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_total_burned_wzec",
		Help: "Sum of completed burns.",
	})
	TotalWithdrawn = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_total_withdrawn_zec",
		Help: "Sum of sent, confirmed and completed withdrawals.",
	})
	FeesCollected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_fees_collected_zec",
		Help: "Arithmetic fee residual between gross and net settled value.",
	})
	ReserveRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_reserve_ratio",
		Help: "Current reserve divided by outstanding wrapped supply.",
	})
	Paused = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "wzec_bridge_paused",
		Help: "1 while the bridge is paused.",
	})

	Settlements = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wzec_bridge_settlements_total",
		Help: "Settlement attempts by leg and outcome.",
	}, []string{"leg", "outcome"})

	RejectedTransfers = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "wzec_bridge_rejected_transfers_total",
		Help: "Transfers rejected by validation, by chain.",
	}, []string{"chain"})

	BackingViolations = promauto.NewCounter(prometheus.CounterOpts{
		Name: "wzec_bridge_backing_violations_total",
		Help: "Times the reserve fell below the outstanding wrapped supply.",
	})
)

const (
	LegMint   = "mint"
	LegPayout = "payout"

	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
)
