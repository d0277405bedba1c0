package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordPublish("success")
		m.RecordDisclosure("success")
		m.RecordError("NotConnected")
		m.RecordReload(time.Second)
		m.RecordProofGeneration(time.Second)
		m.SetStats(1, 1, 1, 1)
		m.RecordHandleCache(true)
		m.RecordRateLimited()
	})
}

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RecordPublish("success")
	m.RecordPublish("success")
	m.RecordPublish("UserCancelled")
	m.RecordHandleCache(true)
	m.RecordHandleCache(false)
	m.RecordHandleCache(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.publishes.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.publishes.WithLabelValues("UserCancelled")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
}

func TestSetStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetStats(3, 1, 2, 200)

	expected := `
# HELP privlib_books Records in the store by category.
# TYPE privlib_books gauge
privlib_books{category="recent"} 2
privlib_books{category="total"} 3
privlib_books{category="verified"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), MetricBooks))
	assert.Equal(t, 200.0, testutil.ToFloat64(m.avgPages))
}
