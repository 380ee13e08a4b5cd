package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCronJobMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)
	m.ObserveRun("staleness", nil, 250*time.Millisecond)
	m.ObserveRun("staleness", nil, time.Second)
	m.ObserveRun("staleness", errors.New("db down"), time.Second)
	m.AddAffected("staleness", "outdated", 3)
	m.AddAffected("staleness", "outdated", 0)
	m.IncSkipped()

	ok := series(t, reg, "cron_job_runs_total", map[string]string{"job": "staleness", "result": ResultSuccess})
	require.NotNil(t, ok)
	assert.Equal(t, float64(2), ok.GetCounter().GetValue())

	failed := series(t, reg, "cron_job_runs_total", map[string]string{"job": "staleness", "result": ResultFailure})
	require.NotNil(t, failed)
	assert.Equal(t, float64(1), failed.GetCounter().GetValue())

	hist := series(t, reg, "cron_job_duration_seconds", map[string]string{"job": "staleness"})
	require.NotNil(t, hist)
	assert.Equal(t, uint64(3), hist.GetHistogram().GetSampleCount())

	affected := series(t, reg, "cron_job_affected_rows_total", map[string]string{"outcome": "outdated"})
	require.NotNil(t, affected)
	assert.Equal(t, float64(3), affected.GetCounter().GetValue())

	skipped := series(t, reg, "cron_cycles_skipped_total", nil)
	require.NotNil(t, skipped)
	assert.Equal(t, float64(1), skipped.GetCounter().GetValue())
}

func TestUnlabelledJobIsUnknown(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCronJobMetrics(reg).ObserveRun("", nil, time.Second)
	assert.NotNil(t, series(t, reg, "cron_job_runs_total", map[string]string{"job": "unknown"}))
}

func TestNilRecordersAreNoops(t *testing.T) {
	var cron *CronJobMetrics
	cron.ObserveRun("job", nil, time.Second)
	cron.IncSkipped()
	NewCronJobMetrics(nil).AddAffected("job", "archived", 1)

	var lists *ShoppingListMetrics
	lists.IncResolve("created")
	NewShoppingListMetrics(nil).ObserveResolve(time.Second)
}
