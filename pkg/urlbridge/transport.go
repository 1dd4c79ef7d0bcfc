package urlbridge

import "time"

// PollHandlers are the callbacks a transport invokes for one registered path.
type PollHandlers struct {
	// Deliver hands over a new inbound request. false means drop it (404).
	Deliver     func(in Inbound) bool
	HasOutcome  func(requestID string) bool
	TakeOutcome func(requestID string) Outcome
	// NoOutcome is called when the transport's own per-request timer fires.
	NoOutcome func(requestID string) Outcome
}

// Transport is the HTTP side of the bridge. Register must route every
// inbound request whose path starts with path to h.
//
// The bridge calls Register and Unregister while holding its guard, so a
// transport must never call back into the bridge from inside either method.
type Transport interface {
	Register(path string, h PollHandlers, timeout time.Duration) error
	Unregister(path string)
	// Port is rendered into the external address.
	Port() int
}

// EventTarget posts a named event with positional arguments to one script.
// The bridge only holds this capability; it never owns script lifecycle.
type EventTarget interface {
	PostEvent(name string, args ...any)
}

// EventTargetFunc adapts a plain function to EventTarget.
type EventTargetFunc func(name string, args ...any)

func (f EventTargetFunc) PostEvent(name string, args ...any) { f(name, args...) }

// Script event vocabulary.
const (
	EventHTTPRequest  = "http_request"
	URLRequestGranted = "URL_REQUEST_GRANTED"
	URLRequestDenied  = "URL_REQUEST_DENIED"
)
