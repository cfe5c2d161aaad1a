package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsNilReceiverIsSafe(t *testing.T) {
	var m *Metrics
	m.ObserveAPI("GET", "/x", "200", time.Millisecond)
	m.ObserveAggregateOperation("wish.publish", "success", time.Millisecond)
	m.IncAggregateConflict("wish.publish")
	m.IncAggregateRetry("wish.publish")
	m.IncSlugCollision("lookup")
	m.IncUploadAuthorization("envelope", "ok")
	m.IncSignedURL("GET", "ok")
	m.ObserveSweep(1, 2, 3)
	m.ApiInflightInc()
	m.ApiInflightDec()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("nil handler status: want=503 got=%d", rec.Code)
	}
}

func TestMetricsCounters(t *testing.T) {
	m := New()
	m.IncSlugCollision("constraint")
	m.IncSlugCollision("constraint")
	m.IncSlugCollision("")
	if got := testutil.ToFloat64(m.slugCollisions.WithLabelValues("constraint")); got != 2 {
		t.Fatalf("slug collisions constraint: want=2 got=%v", got)
	}
	if got := testutil.ToFloat64(m.slugCollisions.WithLabelValues("unknown")); got != 1 {
		t.Fatalf("slug collisions unknown: want=1 got=%v", got)
	}

	m.ObserveSweep(3, 1, 4)
	if got := testutil.ToFloat64(m.sweepObjects); got != 4 {
		t.Fatalf("sweep objects: want=4 got=%v", got)
	}
}

func TestMetricsHandlerExposesSeries(t *testing.T) {
	m := New()
	m.ObserveAPI("POST", "/api/wish/publish", "201", 20*time.Millisecond)
	m.ObserveAggregateOperation("wish.publish", "success", 5*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status: want=200 got=%d", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`wishbox_api_requests_total{method="POST",route="/api/wish/publish",status="201"} 1`,
		`wishbox_aggregate_operations_total{operation="wish.publish",status="success"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("exposition missing %q", want)
		}
	}
}

func TestInitDisabledReturnsNil(t *testing.T) {
	if m := Init(nil, false); m != nil {
		t.Fatalf("Init disabled: want nil")
	}
}
