package httpx

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultPollInterval = 50 * time.Millisecond
	defaultMaxBody      = 1 << 20
)

// PollServer is an http.Handler that turns inbound requests on registered
// paths into bridge deliveries and then polls the bridge for the response.
// It implements urlbridge.Transport.
type PollServer struct {
	port     int
	interval time.Duration
	maxBody  int64
	rps      rate.Limit
	burst    int
	log      *zap.Logger

	mu     sync.RWMutex
	routes map[string]*pollRoute
}

type pollRoute struct {
	path    string
	h       urlbridge.PollHandlers
	timeout time.Duration
	limiter *rate.Limiter
}

type PollOption func(*PollServer)

func WithPollInterval(d time.Duration) PollOption { return func(s *PollServer) { s.interval = d } }
func WithMaxBody(n int64) PollOption              { return func(s *PollServer) { s.maxBody = n } }
func WithLogger(l *zap.Logger) PollOption         { return func(s *PollServer) { s.log = l } }

// WithRateLimit caps inbound requests per registered path. rps <= 0 disables it.
func WithRateLimit(rps float64, burst int) PollOption {
	return func(s *PollServer) {
		if rps <= 0 {
			s.rps = 0
			return
		}
		s.rps = rate.Limit(rps)
		s.burst = max(burst, 1)
	}
}

// NewPollServer returns a transport whose addresses carry port.
func NewPollServer(port int, opts ...PollOption) *PollServer {
	s := &PollServer{
		port:     port,
		interval: defaultPollInterval,
		maxBody:  defaultMaxBody,
		log:      zap.NewNop(),
		routes:   make(map[string]*pollRoute),
	}
	for _, o := range opts {
		o(s)
	}
	if s.interval <= 0 {
		s.interval = defaultPollInterval
	}
	return s
}

func (s *PollServer) Port() int { return s.port }

// Register routes every request below path to h. Registering an existing
// path replaces its handlers.
func (s *PollServer) Register(path string, h urlbridge.PollHandlers, timeout time.Duration) error {
	key, ok := routeKey(path)
	if !ok {
		return errors.New("httpx: path must look like /segment/token/")
	}
	if h.Deliver == nil || h.HasOutcome == nil || h.TakeOutcome == nil || h.NoOutcome == nil {
		return errors.New("httpx: incomplete poll handlers")
	}
	rt := &pollRoute{path: key, h: h, timeout: timeout}
	if s.rps > 0 {
		rt.limiter = rate.NewLimiter(s.rps, s.burst)
	}
	s.mu.Lock()
	s.routes[key] = rt
	s.mu.Unlock()
	return nil
}

func (s *PollServer) Unregister(path string) {
	key, ok := routeKey(path)
	if !ok {
		return
	}
	s.mu.Lock()
	delete(s.routes, key)
	s.mu.Unlock()
}

// Routes is the number of registered paths.
func (s *PollServer) Routes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}

// routeKey reduces any path below /segment/token to "/segment/token/".
func routeKey(path string) (string, bool) {
	parts := strings.SplitN(strings.TrimPrefix(path, "/"), "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", false
	}
	return "/" + parts[0] + "/" + parts[1] + "/", true
}

func (s *PollServer) lookup(path string) *pollRoute {
	key, ok := routeKey(path)
	if !ok {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.routes[key]
}

func (s *PollServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rt := s.lookup(r.URL.Path)
	if rt == nil {
		http.NotFound(w, r)
		return
	}
	if rt.limiter != nil && !rt.limiter.Allow() {
		http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		http.Error(w, "Request Entity Too Large", http.StatusRequestEntityTooLarge)
		return
	}

	in := urlbridge.Inbound{
		RequestID: uuid.NewString(),
		Method:    r.Method,
		URI:       r.URL.RequestURI(),
		Headers:   flattenHeaders(r),
		Body:      string(body),
	}
	log := s.log.With(
		zap.String("request", in.RequestID),
		zap.String("path", rt.path),
		zap.String("httpRequestId", chimd.GetReqID(r.Context())),
	)

	if !rt.h.Deliver(in) {
		log.Debug("delivery dropped")
		http.NotFound(w, r)
		return
	}
	s.poll(r.Context(), w, rt, in.RequestID, log)
}

// poll probes the bridge until it has something to say, the client leaves,
// or the route's timeout fires.
func (s *PollServer) poll(ctx context.Context, w http.ResponseWriter, rt *pollRoute, id string, log *zap.Logger) {
	deadline := time.NewTimer(rt.timeout)
	defer deadline.Stop()
	tick := time.NewTicker(s.interval)
	defer tick.Stop()

	for {
		if rt.h.HasOutcome(id) {
			if out := rt.h.TakeOutcome(id); out.Kind != urlbridge.OutcomePending {
				writeOutcome(w, out)
				return
			}
		}
		select {
		case <-ctx.Done():
			log.Debug("client went away while polling")
			return
		case <-deadline.C:
			writeOutcome(w, rt.h.NoOutcome(id))
			return
		case <-tick.C:
		}
	}
}

func writeOutcome(w http.ResponseWriter, out urlbridge.Outcome) {
	if out.Kind == urlbridge.OutcomePending {
		http.Error(w, "Gateway Timeout", http.StatusGatewayTimeout)
		return
	}
	hdr := w.Header()
	if out.ContentType != "" {
		hdr.Set("Content-Type", out.ContentType)
	}
	if !out.KeepAlive {
		hdr.Set("Connection", "close")
		hdr.Set("Cache-Control", "no-cache")
	}
	w.WriteHeader(out.StatusCode)
	if out.Body != "" {
		_, _ = io.WriteString(w, out.Body)
	}
}

// flattenHeaders keeps the first value of every header under its lower-cased
// name and adds the caller's address as remote_addr.
func flattenHeaders(r *http.Request) map[string]string {
	h := make(map[string]string, len(r.Header)+2)
	for k, v := range r.Header {
		if len(v) > 0 {
			h[strings.ToLower(k)] = v[0]
		}
	}
	if r.Host != "" {
		h["host"] = r.Host
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	h[urlbridge.HeaderRemoteAddr] = host
	return h
}
