package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.RecordInspection("grpc", 2*time.Millisecond)
	r.RecordInspection("grpc", time.Millisecond)
	r.RecordInspection("http", time.Millisecond)
	r.ReportThreat("grpc", "XSS", true)
	r.ReportThreat("grpc", "XSS", false)
	r.ReportThreat("http", "SQL Injection", true)
	r.AlertDropped()
	r.AlertDuplicate()
	r.AlertDuplicate()

	assert.Equal(t, 2.0, testutil.ToFloat64(r.inspections.WithLabelValues("grpc")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.threats.WithLabelValues("grpc", "XSS", "blocked")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.threats.WithLabelValues("grpc", "XSS", "monitored")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.alertsDropped))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.alertsDuplicate))
	assert.Equal(t, 2, testutil.CollectAndCount(r.duration))
}

func TestRecorderRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)
	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestNilRecorder(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.RecordInspection("grpc", time.Millisecond)
		r.ReportThreat("grpc", "XSS", true)
		r.AlertDropped()
		r.AlertDuplicate()
	})
}
