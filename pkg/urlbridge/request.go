package urlbridge

import "time"

const defaultContentType = "text/plain"

// Request is one inbound HTTP request waiting for its script to answer.
type Request struct {
	ID        string
	Method    string
	URI       string
	Body      string
	Headers   map[string]string
	StartedAt time.Time

	ready        bool
	status       int
	responseBody string
	contentType  string
}

// Inbound is what a transport hands over for every request it accepts.
type Inbound struct {
	RequestID string
	Method    string
	// URI is the request target as received: path plus optional raw query.
	URI string
	// Headers are keyed as received. The transport adds a "remote_addr" entry.
	Headers map[string]string
	Body    string
}

// OutcomeKind tells the poller what a probe found.
type OutcomeKind int

const (
	// OutcomePending means the script has not answered and the window is still open.
	OutcomePending OutcomeKind = iota
	// OutcomeReady carries the script's response. The record is gone afterwards.
	OutcomeReady
	// OutcomeNotFound means no such request is in flight.
	OutcomeNotFound
	// OutcomeTimeout means the window elapsed. The record is gone afterwards.
	OutcomeTimeout
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomePending:
		return "pending"
	case OutcomeReady:
		return "ready"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeTimeout:
		return "timeout"
	}
	return "unknown"
}

// Outcome is the response a transport writes back for one request.
type Outcome struct {
	Kind        OutcomeKind
	StatusCode  int
	Body        string
	ContentType string
	// KeepAlive false asks the transport to close the connection and disable caching.
	KeepAlive bool
}

var (
	notFoundOutcome = Outcome{Kind: OutcomeNotFound, StatusCode: 404, ContentType: defaultContentType}
	timeoutOutcome  = Outcome{Kind: OutcomeTimeout, StatusCode: 500, Body: "Script timeout", ContentType: defaultContentType}
	pendingOutcome  = Outcome{Kind: OutcomePending}
)

func (r *Request) outcome() Outcome {
	ct := r.contentType
	if ct == "" {
		ct = defaultContentType
	}
	return Outcome{
		Kind:        OutcomeReady,
		StatusCode:  r.status,
		Body:        r.responseBody,
		ContentType: ct,
		KeepAlive:   true,
	}
}
