package metrics

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMain(m *testing.M) {
	RegisterHTTPMetrics()
	RegisterProviderMetrics()
	os.Exit(m.Run())
}

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/search", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/search?location=Paris", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/search", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_RoutePatternLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/exports/{file}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("Name,Address\n"))
	})

	for _, file := range []string{"a.csv", "b.csv", "c.parquet"} {
		req := httptest.NewRequest("GET", "/exports/"+file, http.NoBody)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/exports/{file}", "200"))
	if val < 3 {
		t.Errorf("expected requests_total for route pattern >= 3, got %f", val)
	}

	bytes := testutil.ToFloat64(httpResponseBytes.WithLabelValues("GET", "/exports/{file}"))
	if bytes < float64(3*len("Name,Address\n")) {
		t.Errorf("expected response bytes >= %d, got %f", 3*len("Name,Address\n"), bytes)
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/notfound", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/gateway", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	tests := []struct {
		path           string
		expectedStatus string
	}{
		{"/ok", "200"},
		{"/notfound", "404"},
		{"/gateway", "502"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestMetricsMiddleware_NoRouter(t *testing.T) {
	h := Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest("GET", "/plain", http.NoBody)
	h.ServeHTTP(httptest.NewRecorder(), req)

	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unknown", "418"))
	if val < 1 {
		t.Errorf("expected unknown path label, got %f", val)
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unknown"},
		{"/search", "/search"},
		{"/health", "/health"},
	}

	for _, tc := range tests {
		result := normalizePath(tc.input)
		if result != tc.expected {
			t.Errorf("normalizePath(%q) = %q, want %q", tc.input, result, tc.expected)
		}
	}
}

func TestRegister_Idempotent(t *testing.T) {
	RegisterHTTPMetrics()
	RegisterProviderMetrics()
}
