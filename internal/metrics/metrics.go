// Package metrics exposes Prometheus collectors for diagnosis activity.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kizuna"

// Collectors groups the diagnosis counters and the synchrony histogram.
// A nil *Collectors is valid and records nothing.
type Collectors struct {
	diagnoses  *prometheus.CounterVec
	fallbacks  prometheus.Counter
	overrides  prometheus.Counter
	incomplete prometheus.Counter
	synchrony  prometheus.Histogram
	sessions   *prometheus.CounterVec
	drift      prometheus.Counter
}

// #region constructor
// NewCollectors creates the collectors and registers them with reg.
// A nil registerer uses prometheus.DefaultRegisterer.
func NewCollectors(reg prometheus.Registerer) (*Collectors, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	c := &Collectors{
		diagnoses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "diagnoses_total",
			Help:      "Diagnoses computed, by resulting type code.",
		}, []string{"type_code"}),
		fallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "fallback_resolutions_total",
			Help:      "Diagnoses and catalog lookups whose type code had no exact catalog entry.",
		}),
		overrides: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "sync_overrides_total",
			Help:      "Diagnoses where the high-divergence override flipped the sync axis.",
		}),
		incomplete: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "incomplete_results_total",
			Help:      "Diagnoses computed from answer sets with missing or unshared axes.",
		}),
		synchrony: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "synchrony_percent",
			Help:      "Distribution of synchrony percentages.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pairing",
			Name:      "session_events_total",
			Help:      "Pair session lifecycle events.",
		}, []string{"event"}),
		drift: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "replay",
			Name:      "drift_total",
			Help:      "Stored sessions whose re-diagnosis no longer matches.",
		}),
	}
	for _, collector := range []prometheus.Collector{
		c.diagnoses, c.fallbacks, c.overrides, c.incomplete, c.synchrony, c.sessions, c.drift,
	} {
		if err := reg.Register(collector); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// MustNewCollectors is NewCollectors that panics on registration errors.
func MustNewCollectors(reg prometheus.Registerer) *Collectors {
	c, err := NewCollectors(reg)
	if err != nil {
		panic(err)
	}
	return c
}

// #endregion constructor

// #region observe
// ObserveDiagnosis records one computed diagnosis.
func (c *Collectors) ObserveDiagnosis(typeCode string, exact, overridden, incomplete bool, synchrony int) {
	if c == nil {
		return
	}
	c.diagnoses.WithLabelValues(typeCode).Inc()
	if !exact {
		c.fallbacks.Inc()
	}
	if overridden {
		c.overrides.Inc()
	}
	if incomplete {
		c.incomplete.Inc()
	}
	c.synchrony.Observe(float64(synchrony))
}

// ObserveFallback counts a catalog lookup answered by the nearest-match
// fallback.
func (c *Collectors) ObserveFallback() {
	if c == nil {
		return
	}
	c.fallbacks.Inc()
}

// IncSession counts a session lifecycle event ("created", "submitted", "completed").
func (c *Collectors) IncSession(event string) {
	if c == nil {
		return
	}
	c.sessions.WithLabelValues(event).Inc()
}

// IncDrift counts a replayed session that drifted.
func (c *Collectors) IncDrift() {
	if c == nil {
		return
	}
	c.drift.Inc()
}

// Sessions exposes the session event counter.
func (c *Collectors) Sessions() *prometheus.CounterVec { return c.sessions }

// Fallbacks exposes the nearest-match fallback counter.
func (c *Collectors) Fallbacks() prometheus.Counter { return c.fallbacks }

// Drift exposes the replay drift counter.
func (c *Collectors) Drift() prometheus.Counter { return c.drift }

// #endregion observe
