package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CommitMetrics counts commit-workflow outcomes and the residual-drift signals
// that need out-of-band reconciliation.
type CommitMetrics struct {
	Attempts                 *prometheus.CounterVec
	ArtworkVersionMismatches prometheus.Counter
	UndeductFailures         prometheus.Counter
	FailedChargeNotices      prometheus.Counter
}

func NewCommitMetrics(reg prometheus.Registerer) *CommitMetrics {
	m := &CommitMetrics{
		Attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: "commit",
			Name:      "attempts_total",
			Help:      "Commit attempts by outcome.",
		}, []string{"outcome"}),
		ArtworkVersionMismatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: "commit",
			Name:      "artwork_version_mismatch_total",
			Help:      "Commits rejected because a line item referenced a stale artwork version.",
		}),
		UndeductFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: "commit",
			Name:      "undeduct_failures_total",
			Help:      "Best-effort inventory reversals that failed; inventory drift to reconcile.",
		}),
		FailedChargeNotices: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "exchange",
			Subsystem: "notification",
			Name:      "failed_charge_notices_total",
			Help:      "Failed-charge notifications delivered by the worker.",
		}),
	}
	reg.MustRegister(m.Attempts, m.ArtworkVersionMismatches, m.UndeductFailures, m.FailedChargeNotices)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}
