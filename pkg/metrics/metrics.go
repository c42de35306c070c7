package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GenerationRuns 自动排班评估次数，outcome 为 generated 或跳过原因码
	GenerationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shiftly_generation_runs_total",
			Help: "Total number of auto-schedule evaluations by outcome",
		},
		[]string{"outcome"},
	)

	EngineDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "shiftly_engine_duration_seconds",
			Help:    "Schedule engine computation time in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		},
	)

	CoveragePercent = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shiftly_generation_coverage_percent",
			Help: "Coverage percent of the latest generation per tenant",
		},
		[]string{"tenant_id"},
	)

	UnderstaffedInstances = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shiftly_understaffed_instances_total",
			Help: "Total number of shift instances left short of required headcount",
		},
	)
)
