package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestBridgeObserver(t *testing.T) {
	reg := prometheus.NewRegistry()
	o := NewBridgeObserver(reg)

	o.EndpointGranted(true)
	o.EndpointGranted(false)
	o.EndpointDenied(urlbridge.ErrCapacityExceeded)
	o.EndpointDenied(urlbridge.ErrSecureUnavailable)
	o.EndpointDenied(errors.New("listen failed"))
	o.EndpointsReleased(2, 3)
	o.RequestDelivered()
	o.RequestDelivered()
	o.OutcomeTaken()
	o.RequestTimedOut()
	o.RequestDropped()
	o.Gauges(4, 7)

	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"granted secure", testutil.ToFloat64(o.granted.WithLabelValues("true")), 1},
		{"denied capacity", testutil.ToFloat64(o.denied.WithLabelValues("capacity")), 1},
		{"denied secure", testutil.ToFloat64(o.denied.WithLabelValues("secure_unavailable")), 1},
		{"denied transport", testutil.ToFloat64(o.denied.WithLabelValues("transport")), 1},
		{"released", testutil.ToFloat64(o.released), 2},
		{"cascaded", testutil.ToFloat64(o.cascaded), 3},
		{"delivered", testutil.ToFloat64(o.requests.WithLabelValues("delivered")), 2},
		{"answered", testutil.ToFloat64(o.requests.WithLabelValues("answered")), 1},
		{"timeout", testutil.ToFloat64(o.requests.WithLabelValues("timeout")), 1},
		{"dropped", testutil.ToFloat64(o.requests.WithLabelValues("dropped")), 1},
		{"endpoints", testutil.ToFloat64(o.endpoints), 4},
		{"pending", testutil.ToFloat64(o.pending), 7},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
	if n := testutil.CollectAndCount(o.granted); n != 2 {
		t.Errorf("granted series = %d", n)
	}
}

func TestBridgePathNormalizer(t *testing.T) {
	cases := map[string]string{
		"/lslhttp/abc/":                   "/lslhttp/{token}",
		"/lslhttps/abc/extra/path":        "/lslhttps/{token}",
		"/v1/endpoints":                   "/v1/endpoints",
		"/v1/endpoints/abc":               "/v1/endpoints/{id}",
		"/v1/requests/r1/response":        "/v1/requests/{id}/response",
		"/v1/requests/r1/headers/x-path":  "/v1/requests/{id}/headers/{name}",
		"/v1/lifecycle/script-removed/s1": "/v1/lifecycle/script-removed/{id}",
		"/v1/capacity":                    "/v1/capacity",
	}
	for in, want := range cases {
		r := httptest.NewRequest(http.MethodGet, in, nil)
		if got := BridgePathNormalizer(r); got != want {
			t.Errorf("%s -> %s, want %s", in, got, want)
		}
	}
}

func TestCollectSkipsMetricsPath(t *testing.T) {
	before := testutil.ToFloat64(totalHttpRequests.WithLabelValues("200", "GET"))
	h := Collect(nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if got := testutil.ToFloat64(totalHttpRequests.WithLabelValues("200", "GET")); got != before {
		t.Fatalf("metrics path counted: %v -> %v", before, got)
	}
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/capacity", nil))
	if got := testutil.ToFloat64(totalHttpRequests.WithLabelValues("200", "GET")); got != before+1 {
		t.Fatalf("request not counted: %v -> %v", before, got)
	}
}
