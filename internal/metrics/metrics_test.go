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

	"github.com/startup-roles/backend/internal/domain"
)

func TestObserveSource(t *testing.T) {
	m := New()
	m.ObserveSource(domain.SourceSummary{Source: "yc", Success: true, Extracted: 12, NewRoles: 3, NewSources: 4, Duration: time.Second})
	m.ObserveSource(domain.SourceSummary{Source: "a16z", Success: false})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRuns.WithLabelValues("yc", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SourceRuns.WithLabelValues("a16z", "failure")))
	assert.Equal(t, 12.0, testutil.ToFloat64(m.RecordsExtracted.WithLabelValues("yc")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.RolesCreated.WithLabelValues("yc")))
}

func TestObserveRunAndRejections(t *testing.T) {
	m := New()
	start := time.Unix(1_700_000_000, 0)
	m.ObserveRun(&domain.RunSummary{StartedAt: start, FinishedAt: start.Add(time.Minute)}, nil)
	m.ObserveRun(nil, errors.New("store unavailable"))
	m.ObserveRejection("yc", "title_blocklist")
	m.ObserveRejection("yc", "title_blocklist")
	m.ObserveDeactivated(5)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("failed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RecordsRejected.WithLabelValues("yc", "title_blocklist")))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.RolesDeactivated))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRejection("yc", "company")
		m.ObserveSource(domain.SourceSummary{})
		m.ObserveRun(nil, nil)
		m.ObserveDeactivated(1)
		m.ObserveHTTP("GET", "/api/jobs", 200, time.Millisecond)
	})
}

func TestObserveHTTP(t *testing.T) {
	m := New()
	m.ObserveHTTP("GET", "/api/jobs/:id", 404, 3*time.Millisecond)
	m.ObserveHTTP("GET", "/api/jobs/:id", 404, 3*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("GET", "/api/jobs/:id", "404")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.HTTPDuration))
}

func TestHandlerExposesRegistry(t *testing.T) {
	m := New()
	m.ObserveRejection("wellfound", "link_format")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `startup_roles_records_rejected_total{check="link_format",source="wellfound"} 1`)
	assert.Contains(t, string(body), "go_goroutines")
}
