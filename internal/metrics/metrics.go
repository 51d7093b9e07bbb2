package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	TickCount            prometheus.Counter
	TriggerMatches       prometheus.Counter
	ForwardSuccesses     prometheus.Counter
	ForwardFailures      prometheus.Counter
	ActionSuccesses      prometheus.Counter
	ActionFailures       prometheus.Counter
	ConfirmationTimeouts prometheus.Counter
	ConfirmationCancels  prometheus.Counter
	AutomationRuns       prometheus.Counter
	ProcessingTime       prometheus.Histogram
	ActiveRules          prometheus.Gauge
	TotalRules           prometheus.Gauge
	PendingConfirmations prometheus.Gauge
}

// NewMetrics creates new Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		TickCount: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_monitor_tick_count",
			Help: "Total number of monitor loop ticks",
		}),
		TriggerMatches: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_trigger_matches",
			Help: "Total number of events that matched automation triggers",
		}),
		ForwardSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_forward_successes",
			Help: "Total number of successful message forwards",
		}),
		ForwardFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_forward_failures",
			Help: "Total number of failed message forwards",
		}),
		ActionSuccesses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_action_successes",
			Help: "Total number of successfully executed actions",
		}),
		ActionFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_action_failures",
			Help: "Total number of failed actions",
		}),
		ConfirmationTimeouts: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_confirmation_timeouts",
			Help: "Total number of confirmation requests that timed out",
		}),
		ConfirmationCancels: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_confirmation_cancels",
			Help: "Total number of confirmation requests cancelled by the user",
		}),
		AutomationRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "shortcoder_automation_runs",
			Help: "Total number of completed automation runs",
		}),
		ProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "shortcoder_event_processing_duration_seconds",
			Help:    "Time spent processing inbound events",
			Buckets: prometheus.DefBuckets,
		}),
		ActiveRules: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "shortcoder_active_rules",
			Help: "Number of currently enabled forwarding rules",
		}),
		TotalRules: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "shortcoder_total_rules",
			Help: "Total number of forwarding rules (enabled and disabled)",
		}),
		PendingConfirmations: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "shortcoder_pending_confirmations",
			Help: "Number of automation runs awaiting confirmation",
		}),
	}
}
