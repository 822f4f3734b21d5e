package core

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopMetrics(t *testing.T) {
	metrics := &NoopMetrics{}

	metrics.IncCounter("test_counter", map[string]string{"tag": "value"})
	metrics.ObserveHistogram("test_histogram", 1.5, map[string]string{"tag": "value"})
	metrics.SetGauge("test_gauge", 2.5, map[string]string{"tag": "value"})
}

func TestPrometheusMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := NewPrometheusMetrics(registry)

	t.Run("IncCounter", func(t *testing.T) {
		tags := map[string]string{"tag1": "value1", "tag2": "value2"}

		metrics.IncCounter("test_counter", tags)
		metrics.IncCounter("test_counter", tags)

		counter, ok := metrics.counters["test_counter"]
		require.True(t, ok, "Counter should be registered")
		assert.Equal(t, float64(2), testutil.ToFloat64(counter.With(tags)))
	})

	t.Run("ObserveHistogram", func(t *testing.T) {
		metrics.ObserveHistogram("test_histogram", 2.5, map[string]string{"tag1": "value1"})

		count, err := testutil.GatherAndCount(registry, "test_histogram")
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("SetGauge", func(t *testing.T) {
		tags := map[string]string{"tag1": "value1"}
		metrics.SetGauge("test_gauge", 4.5, tags)
		metrics.SetGauge("test_gauge", 3.5, tags)

		gauge, ok := metrics.gauges["test_gauge"]
		require.True(t, ok, "Gauge should be registered")
		assert.Equal(t, 3.5, testutil.ToFloat64(gauge.With(tags)))
	})

	t.Run("label order does not matter", func(t *testing.T) {
		metrics.IncCounter("ordered_counter", map[string]string{"b": "2", "a": "1"})
		metrics.IncCounter("ordered_counter", map[string]string{"a": "1", "b": "2"})

		assert.Equal(t, float64(2), testutil.ToFloat64(metrics.counters["ordered_counter"].With(prometheus.Labels{"a": "1", "b": "2"})))
	})
}

func TestKeys(t *testing.T) {
	result := keys(map[string]string{"key3": "c", "key1": "a", "key2": "b"})
	assert.Equal(t, []string{"key1", "key2", "key3"}, result)
}
