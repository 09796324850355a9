package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorders(t *testing.T) {
	m := New()

	m.RecordFile("extract", true)
	m.RecordFile("extract", true)
	m.RecordFile("transform", false)
	m.RecordIssue("GRD001", "warning")
	m.RecordBundles(3)
	m.RecordBundles(0)
	m.RecordRun(nil)
	m.RecordRun(errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("extract", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FilesProcessed.WithLabelValues("transform", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuesTotal.WithLabelValues("GRD001", "warning")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.BundlesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFile("load", true)
		m.RecordIssue("X", "error")
		m.RecordBundles(1)
		m.RecordRun(nil)
		m.ObserveStage("load", time.Second)
	})

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 404, rec.Code)
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveStage("transform", 250*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `slexa_stage_duration_seconds_count{stage="transform"} 1`)
}
