package urlbridge

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults applied by New.
const (
	DefaultCapacity = 15000
	DefaultTimeout  = 25 * time.Second
)

// Config holds the bridge's tunables.
type Config struct {
	ExternalHost string
	Capacity     int
	Timeout      time.Duration
}

type Option func(*Bridge)

func WithExternalHost(host string) Option { return func(b *Bridge) { b.cfg.ExternalHost = host } }
func WithCapacity(n int) Option           { return func(b *Bridge) { b.cfg.Capacity = n } }
func WithTimeout(d time.Duration) Option  { return func(b *Bridge) { b.cfg.Timeout = d } }
func WithLogger(l *zap.Logger) Option     { return func(b *Bridge) { b.log = l } }
func WithObserver(o Observer) Option      { return func(b *Bridge) { b.obs = o } }

// WithSecureTransport enables secure allocations. Without it every secure
// request is denied with ErrSecureUnavailable.
func WithSecureTransport(t Transport) Option { return func(b *Bridge) { b.secure = t } }

// WithClock replaces time.Now. Tests use it to move past the timeout window.
func WithClock(now func() time.Time) Option { return func(b *Bridge) { b.now = now } }

// WithTokenSource replaces the uuid token generator.
func WithTokenSource(next func() string) Option { return func(b *Bridge) { b.newToken = next } }

// correlation is one row of the request table: the record and the endpoint
// that owns it.
type correlation struct {
	endpoint *Endpoint
	request  *Request
}

// Bridge owns the endpoint registry and the request correlation table.
type Bridge struct {
	g guard

	// guarded by g
	endpoints map[string]*Endpoint    // address -> endpoint
	tokens    map[string]string       // token -> address
	requests  map[string]*correlation // request id -> owner + record

	cfg      Config
	plain    Transport
	secure   Transport
	log      *zap.Logger
	obs      Observer
	now      func() time.Time
	newToken func() string
}

// New builds a bridge that registers plain endpoints with transport.
func New(transport Transport, opts ...Option) *Bridge {
	b := &Bridge{
		endpoints: make(map[string]*Endpoint),
		tokens:    make(map[string]string),
		requests:  make(map[string]*correlation),
		cfg:       Config{ExternalHost: "localhost", Capacity: DefaultCapacity, Timeout: DefaultTimeout},
		plain:     transport,
		log:       zap.NewNop(),
		obs:       nopObserver{},
		now:       time.Now,
		newToken:  uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	if b.cfg.ExternalHost == "" {
		b.cfg.ExternalHost = "localhost"
	}
	if b.cfg.Capacity < 0 {
		b.cfg.Capacity = 0
	}
	if b.cfg.Timeout <= 0 {
		b.cfg.Timeout = DefaultTimeout
	}
	if b.log == nil {
		b.log = zap.NewNop()
	}
	if b.obs == nil {
		b.obs = nopObserver{}
	}
	return b
}

// Config returns the effective settings.
func (b *Bridge) Config() Config { return b.cfg }

// SecureAvailable reports whether secure allocations can be granted.
func (b *Bridge) SecureAvailable() bool { return b.secure != nil }

// Stats is a point-in-time view of the tables.
type Stats struct {
	Endpoints int
	Requests  int
	Capacity  int
}

func (b *Bridge) Stats() Stats {
	var s Stats
	b.g.view(func() {
		s = Stats{Endpoints: len(b.endpoints), Requests: len(b.requests), Capacity: b.cfg.Capacity}
	})
	return s
}

// Endpoints lists every live endpoint.
func (b *Bridge) Endpoints() []EndpointInfo {
	var out []EndpointInfo
	b.g.view(func() {
		out = make([]EndpointInfo, 0, len(b.endpoints))
		for _, ep := range b.endpoints {
			out = append(out, ep.info())
		}
	})
	return out
}

func (b *Bridge) expired(r *Request) bool {
	return b.now().Sub(r.StartedAt) > b.cfg.Timeout
}

func (b *Bridge) abandoned(r *Request) bool {
	return b.now().Sub(r.StartedAt) > 2*b.cfg.Timeout
}

func (b *Bridge) transportFor(secure bool) Transport {
	if secure {
		return b.secure
	}
	return b.plain
}

// publishLocked hands the table sizes to the observer. The caller holds the
// guard exclusively so consecutive publications cannot be reordered.
func (b *Bridge) publishLocked() {
	b.obs.Gauges(len(b.endpoints), len(b.requests))
}

// notify posts to a script target and contains any panic it raises.
func (b *Bridge) notify(t EventTarget, name string, args ...any) {
	if t == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event target panicked",
				zap.String("event", name),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
		}
	}()
	t.PostEvent(name, args...)
}
