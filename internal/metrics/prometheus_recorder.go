package metrics

import (
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "prefstore"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	operations      *prom.CounterVec
	kindMismatches  *prom.CounterVec
	restoreSkipped  *prom.CounterVec
	keywordRebuilds prom.Histogram
}

// NewPrometheusRecorder constructs the metrics and registers them on reg. A
// nil reg gets a private registry.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		operations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Store operations by namespace, operation and result",
		}, []string{"namespace", "op", "result"}),
		kindMismatches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "kind_mismatches_total",
			Help:      "Reads that fell back to the default because the stored kind differed",
		}, []string{"namespace"}),
		restoreSkipped: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "restore_skipped_total",
			Help:      "Entries dropped during restore because their kind is unsupported",
		}, []string{"namespace"}),
		keywordRebuilds: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "keyword_rebuild_duration_seconds",
			Help:      "Time spent parsing the states setting into keyword sets",
			Buckets:   prom.DefBuckets,
		}),
	}
	reg.MustRegister(pr.operations, pr.kindMismatches, pr.restoreSkipped, pr.keywordRebuilds)
	return pr
}

// IncOperation counts one medium operation by namespace, op and outcome.
func (p *PrometheusRecorder) IncOperation(ns, op string, success bool) {
	if p == nil {
		return
	}
	result := "success"
	if !success {
		result = "failed"
	}
	p.operations.WithLabelValues(ns, op, result).Inc()
}

// IncKindMismatch counts a typed read that found another kind.
func (p *PrometheusRecorder) IncKindMismatch(ns string) {
	if p == nil {
		return
	}
	p.kindMismatches.WithLabelValues(ns).Inc()
}

// IncRestoreSkipped counts an entry dropped during restore.
func (p *PrometheusRecorder) IncRestoreSkipped(ns string) {
	if p == nil {
		return
	}
	p.restoreSkipped.WithLabelValues(ns).Inc()
}

// ObserveKeywordRebuild records how long a keyword cache build took.
func (p *PrometheusRecorder) ObserveKeywordRebuild(d time.Duration) {
	if p == nil {
		return
	}
	p.keywordRebuilds.Observe(d.Seconds())
}
