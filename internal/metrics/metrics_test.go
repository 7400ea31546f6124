// internal/metrics/metrics_test.go
package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordClassification(t *testing.T) {
	before := testutil.ToFloat64(ClassificationsTotal.WithLabelValues("onnx", "ok"))
	RecordClassification("onnx", "ok")
	RecordClassification("onnx", "ok")
	after := testutil.ToFloat64(ClassificationsTotal.WithLabelValues("onnx", "ok"))
	assert.Equal(t, before+2, after)
}

func TestCacheCounters(t *testing.T) {
	hits := testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("hit"))
	misses := testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("miss"))
	RecordCacheHit()
	RecordCacheMiss()
	assert.Equal(t, hits+1, testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("hit")))
	assert.Equal(t, misses+1, testutil.ToFloat64(CacheRequestsTotal.WithLabelValues("miss")))
}

func TestGauges(t *testing.T) {
	SetBackendLoaded("libtorch", true)
	assert.Equal(t, 1.0, testutil.ToFloat64(BackendLoaded.WithLabelValues("libtorch")))
	SetBackendLoaded("libtorch", false)
	assert.Equal(t, 0.0, testutil.ToFloat64(BackendLoaded.WithLabelValues("libtorch")))

	SetHealthy()
	assert.Equal(t, 1.0, testutil.ToFloat64(HealthStatus))
	SetUnhealthy()
	assert.Equal(t, 0.0, testutil.ToFloat64(HealthStatus))
}
