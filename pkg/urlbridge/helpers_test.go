package urlbridge

import (
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

type fakeTransport struct {
	mu     sync.Mutex
	port   int
	paths  map[string]PollHandlers
	failOn string
}

func newFakeTransport(port int) *fakeTransport {
	return &fakeTransport{port: port, paths: make(map[string]PollHandlers)}
}

func (f *fakeTransport) Register(path string, h PollHandlers, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && f.failOn == path {
		return errors.New("register refused")
	}
	f.paths[path] = h
	return nil
}

func (f *fakeTransport) Unregister(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.paths, path)
}

func (f *fakeTransport) Port() int { return f.port }

func (f *fakeTransport) registered(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.paths[path]
	return ok
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.paths)
}

type event struct {
	name string
	args []any
}

type recorder struct {
	mu     sync.Mutex
	events []event
}

func (r *recorder) PostEvent(name string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{name: name, args: args})
}

func (r *recorder) all() []event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...)
}

func (r *recorder) last(t *testing.T) event {
	t.Helper()
	ev := r.all()
	if len(ev) == 0 {
		t.Fatal("no events recorded")
	}
	return ev[len(ev)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type harness struct {
	b      *Bridge
	plain  *fakeTransport
	secure *fakeTransport
	clock  *fakeClock
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{
		plain:  newFakeTransport(9000),
		secure: newFakeTransport(9001),
		clock:  newFakeClock(),
	}
	base := []Option{
		WithExternalHost("sim.example.org"),
		WithSecureTransport(h.secure),
		WithClock(h.clock.Now),
		WithLogger(zaptest.NewLogger(t)),
	}
	h.b = New(h.plain, append(base, opts...)...)
	return h
}

// grant allocates a plain endpoint and fails the test if it is denied.
func (h *harness) grant(t *testing.T, objectID, scriptID string, target EventTarget) Allocation {
	t.Helper()
	a := h.b.Allocate(objectID, scriptID, target, false)
	if !a.Granted {
		t.Fatalf("allocation denied: %v", a.Reason)
	}
	return a
}

func inbound(id, uri string) Inbound {
	return Inbound{
		RequestID: id,
		Method:    "POST",
		URI:       uri,
		Headers:   map[string]string{HeaderRemoteAddr: "10.1.2.3", "content-type": "text/plain"},
		Body:      "ping",
	}
}
