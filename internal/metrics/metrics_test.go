package metrics

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	if err != nil {
		t.Fatal(err)
	}
	return string(body)
}

func TestLayoutMetrics(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnLayoutStart(ctx, "run-1", 42)
	m.OnLayoutComplete(ctx, "run-1", 50*time.Millisecond, nil)
	m.OnLayoutComplete(ctx, "run-2", time.Millisecond, errors.New("boom"))
	m.OnSuperseded(ctx, 7)

	body := scrape(t, m)
	if !strings.Contains(body, `livingmap_layout_runs_total{outcome="success"} 1`) {
		t.Errorf("success counter missing:\n%s", body)
	}
	if !strings.Contains(body, `livingmap_layout_runs_total{outcome="error"} 1`) {
		t.Errorf("error counter missing:\n%s", body)
	}
	if !strings.Contains(body, "livingmap_layout_superseded_total 1") {
		t.Errorf("superseded counter missing:\n%s", body)
	}
}

func TestCacheMetrics(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnCacheHit(ctx, "layout")
	m.OnCacheHit(ctx, "layout")
	m.OnCacheMiss(ctx, "layout")
	m.OnCacheSet(ctx, "layout", 1024)

	body := scrape(t, m)
	if !strings.Contains(body, `livingmap_cache_ops_total{key_type="layout",op="hit"} 2`) {
		t.Errorf("hit counter missing:\n%s", body)
	}
	if !strings.Contains(body, `livingmap_cache_ops_total{key_type="layout",op="miss"} 1`) {
		t.Errorf("miss counter missing:\n%s", body)
	}
}

func TestHTTPMetrics(t *testing.T) {
	m := New()
	ctx := context.Background()

	m.OnResponse(ctx, "POST", "/api/v1/layout", 200, 20*time.Millisecond)
	m.OnResponse(ctx, "POST", "/api/v1/layout", 400, time.Millisecond)

	body := scrape(t, m)
	if !strings.Contains(body, `livingmap_http_requests_total{method="POST",path="/api/v1/layout",status="200"} 1`) {
		t.Errorf("200 counter missing:\n%s", body)
	}
	if !strings.Contains(body, `livingmap_http_requests_total{method="POST",path="/api/v1/layout",status="400"} 1`) {
		t.Errorf("400 counter missing:\n%s", body)
	}
}
