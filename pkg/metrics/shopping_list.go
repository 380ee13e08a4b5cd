package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ShoppingListMetrics tracks reconciliation outcomes.
type ShoppingListMetrics struct {
	resolves      *prometheus.CounterVec
	lockConflicts prometheus.Counter
	duration      prometheus.Histogram
}

// NewShoppingListMetrics registers the shopping list metrics on reg. A nil
// registerer yields a no-op recorder.
func NewShoppingListMetrics(reg prometheus.Registerer) *ShoppingListMetrics {
	if reg == nil {
		return &ShoppingListMetrics{}
	}
	resolves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shopping_list_resolve_total",
		Help: "Shopping list resolutions by action (created, exists, updated).",
	}, []string{"action"})
	lockConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "shopping_list_lock_conflicts_total",
		Help: "Resolutions rejected because another request held the period lock.",
	})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "shopping_list_resolve_duration_seconds",
		Help:    "Time spent aggregating and reconciling a shopping list.",
		Buckets: prometheus.DefBuckets,
	})
	reg.MustRegister(resolves, lockConflicts, duration)
	return &ShoppingListMetrics{
		resolves:      resolves,
		lockConflicts: lockConflicts,
		duration:      duration,
	}
}

func (m *ShoppingListMetrics) IncResolve(action string) {
	if m == nil || m.resolves == nil {
		return
	}
	m.resolves.WithLabelValues(labelOrUnknown(action)).Inc()
}

func (m *ShoppingListMetrics) IncLockConflict() {
	if m == nil || m.lockConflicts == nil {
		return
	}
	m.lockConflicts.Inc()
}

func (m *ShoppingListMetrics) ObserveResolve(d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
