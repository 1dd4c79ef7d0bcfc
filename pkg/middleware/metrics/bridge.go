package metrics

import (
	"errors"
	"strconv"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"github.com/prometheus/client_golang/prometheus"
)

// BridgeObserver exports bridge activity as prometheus collectors.
type BridgeObserver struct {
	granted   *prometheus.CounterVec
	denied    *prometheus.CounterVec
	released  prometheus.Counter
	cascaded  prometheus.Counter
	requests  *prometheus.CounterVec
	endpoints prometheus.Gauge
	pending   prometheus.Gauge
}

var _ urlbridge.Observer = (*BridgeObserver)(nil)

// NewBridgeObserver registers the bridge collectors with reg.
func NewBridgeObserver(reg prometheus.Registerer) *BridgeObserver {
	o := &BridgeObserver{
		granted: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "urlbridge_endpoints_granted_total", Help: "endpoints granted"},
			[]string{"secure"},
		),
		denied: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "urlbridge_endpoints_denied_total", Help: "endpoint requests denied by reason"},
			[]string{"reason"},
		),
		released: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urlbridge_endpoints_released_total", Help: "endpoints released",
		}),
		cascaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "urlbridge_requests_cascaded_total", Help: "pending requests dropped by endpoint release",
		}),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "urlbridge_requests_total", Help: "inbound requests by result"},
			[]string{"result"},
		),
		endpoints: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "urlbridge_endpoints", Help: "live endpoints",
		}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "urlbridge_pending_requests", Help: "requests awaiting an outcome",
		}),
	}
	reg.MustRegister(o.granted, o.denied, o.released, o.cascaded, o.requests, o.endpoints, o.pending)
	return o
}

func (o *BridgeObserver) EndpointGranted(secure bool) {
	o.granted.WithLabelValues(strconv.FormatBool(secure)).Inc()
}

func (o *BridgeObserver) EndpointDenied(reason error) {
	o.denied.WithLabelValues(denialReason(reason)).Inc()
}

func (o *BridgeObserver) EndpointsReleased(endpoints, requests int) {
	o.released.Add(float64(endpoints))
	o.cascaded.Add(float64(requests))
}

func (o *BridgeObserver) RequestDelivered() { o.requests.WithLabelValues("delivered").Inc() }
func (o *BridgeObserver) RequestDropped()   { o.requests.WithLabelValues("dropped").Inc() }
func (o *BridgeObserver) OutcomeTaken()     { o.requests.WithLabelValues("answered").Inc() }
func (o *BridgeObserver) RequestTimedOut()  { o.requests.WithLabelValues("timeout").Inc() }

func (o *BridgeObserver) Gauges(endpoints, requests int) {
	o.endpoints.Set(float64(endpoints))
	o.pending.Set(float64(requests))
}

func denialReason(err error) string {
	switch {
	case errors.Is(err, urlbridge.ErrCapacityExceeded):
		return "capacity"
	case errors.Is(err, urlbridge.ErrSecureUnavailable):
		return "secure_unavailable"
	default:
		return "transport"
	}
}
