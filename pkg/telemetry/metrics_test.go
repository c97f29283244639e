package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveUpstream(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveUpstream("gsc", "success", 120*time.Millisecond)
	m.ObserveUpstream("gsc", "success", 80*time.Millisecond)
	m.ObserveUpstream("gsc", "server_error", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("gsc", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.UpstreamRequests.WithLabelValues("gsc", "server_error")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.UpstreamLatency))
}

func TestObserveCache(t *testing.T) {
	m := NewMetrics("test")

	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(CacheHit)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheLookups.WithLabelValues(CacheMiss)))
}

func TestRegisterCacheSize(t *testing.T) {
	m := NewMetrics("test")
	size := 7
	m.RegisterCacheSize("test", func() int { return size })

	families, err := m.Gatherer().Gather()
	require.NoError(t, err)

	var found bool
	for _, f := range families {
		if f.GetName() == "test_cache_entries" {
			found = true
			assert.Equal(t, 7.0, f.GetMetric()[0].GetGauge().GetValue())
		}
	}
	assert.True(t, found, "cache gauge not gathered")
}
