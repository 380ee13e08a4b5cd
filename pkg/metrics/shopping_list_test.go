package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShoppingListMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewShoppingListMetrics(reg)
	m.IncResolve("created")
	m.IncResolve("exists")
	m.IncResolve("exists")
	m.IncLockConflict()
	m.ObserveResolve(40 * time.Millisecond)

	exists := series(t, reg, "shopping_list_resolve_total", map[string]string{"action": "exists"})
	require.NotNil(t, exists)
	assert.Equal(t, float64(2), exists.GetCounter().GetValue())

	conflicts := series(t, reg, "shopping_list_lock_conflicts_total", nil)
	require.NotNil(t, conflicts)
	assert.Equal(t, float64(1), conflicts.GetCounter().GetValue())

	hist := series(t, reg, "shopping_list_resolve_duration_seconds", nil)
	require.NotNil(t, hist)
	assert.Equal(t, uint64(1), hist.GetHistogram().GetSampleCount())
}
