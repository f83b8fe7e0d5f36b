package observability

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func scrape(t *testing.T, metrics *Metrics) string {
	t.Helper()
	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	return rr.Body.String()
}

func TestMetricsHandlerExposesPrometheusMetrics(t *testing.T) {
	body := scrape(t, NewMetrics())
	if !strings.Contains(body, "bankdash_jobs_total") {
		t.Fatalf("expected body to contain bankdash_jobs_total, got: %s", body)
	}
}

func TestMetricsMiddlewareRecordsRequest(t *testing.T) {
	metrics := NewMetrics()

	handler := metrics.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	routeCtx := chi.NewRouteContext()
	routeCtx.RoutePatterns = append(routeCtx.RoutePatterns, "/banks")

	req := httptest.NewRequest(http.MethodGet, "/banks", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTeapot {
		t.Fatalf("expected status %d, got %d", http.StatusTeapot, rr.Code)
	}

	body := scrape(t, metrics)
	if !strings.Contains(body, `bankdash_http_requests_total{code="418",route="/banks"} 1`) {
		t.Fatalf("expected metrics to record request, got: %s", body)
	}
	if !strings.Contains(body, `bankdash_http_request_duration_seconds_bucket{route="/banks"`) {
		t.Fatalf("expected duration histogram to be present, got: %s", body)
	}
}

func TestObserveGatewayCallAndJob(t *testing.T) {
	metrics := NewMetrics()
	metrics.ObserveGatewayCall("list all", 20*time.Millisecond, nil)
	metrics.ObserveGatewayCall("list all", time.Millisecond, errors.New("refused"))
	metrics.ObserveJob("bank:audit", errors.New("db down"))

	body := scrape(t, metrics)
	for _, want := range []string{
		`bankdash_gateway_calls_total{op="list all",outcome="success"} 1`,
		`bankdash_gateway_calls_total{op="list all",outcome="error"} 1`,
		`bankdash_gateway_call_duration_seconds_count{op="list all"} 2`,
		`bankdash_jobs_total{outcome="error",task="bank:audit"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics, got: %s", want, body)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var metrics *Metrics
	metrics.ObserveGatewayCall("create", time.Second, nil)
	metrics.ObserveJob("bank:audit", nil)

	rr := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 from nil metrics, got %d", rr.Code)
	}
}
