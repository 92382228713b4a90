package metrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestCommitMetricsTrack(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCommitMetrics(reg)

	if err := m.Track(CommitSaleCreate, func() error { time.Sleep(time.Millisecond); return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	boom := errors.New("boom")
	if err := m.Track(CommitSaleCreate, func() error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("expected track to return fn error, got %v", err)
	}

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "fairpos_commit_success_total", "kind", CommitSaleCreate); err != nil || got != 1 {
		t.Fatalf("expected success=1, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "fairpos_commit_failure_total", "kind", CommitSaleCreate); err != nil || got != 1 {
		t.Fatalf("expected failure=1, got %f err=%v", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "fairpos_commit_duration_seconds", "kind", CommitSaleCreate); err != nil || got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f err=%v", got, err)
	}
}

func TestNilCommitMetricsIsSafe(t *testing.T) {
	var m *CommitMetrics
	if err := m.Track(CommitProductDelete, func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	NewCommitMetrics(nil).IncFailure("x")
}

func TestHTTPMiddlewareLabelsByRoutePattern(t *testing.T) {
	m := NewHTTP()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/api/v1/products/{productId}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for i := 0; i < 2; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/products/p-%d", i), nil))
	}

	mfs, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	mf := findMetricFamily(mfs, "fairpos_http_requests_total")
	if mf == nil || len(mf.GetMetric()) != 1 {
		t.Fatalf("expected a single route series, got %v", mf)
	}
	metric := mf.GetMetric()[0]
	if !matchesLabel(metric.GetLabel(), "route", "/api/v1/products/{productId}") || !matchesLabel(metric.GetLabel(), "code", "404") {
		t.Fatalf("unexpected labels %v", metric.GetLabel())
	}
	if metric.GetCounter().GetValue() != 2 {
		t.Fatalf("expected 2 requests, got %f", metric.GetCounter().GetValue())
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fairpos_http_request_duration_seconds") {
		t.Fatalf("metrics endpoint did not expose histogram: %d", rec.Code)
	}
}

func TestNilHTTPHandlerUnavailable(t *testing.T) {
	var m *HTTP
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
