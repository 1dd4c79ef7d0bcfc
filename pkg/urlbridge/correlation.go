package urlbridge

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Deliver records an inbound request for the endpoint at address and tells
// the owning script about it.
//
// false means the endpoint is gone, usually because it was released while
// the request was in transit. That is an expected race: the transport drops
// the request and the script never hears of it. Any panic while building the
// record is logged and also ends in false, leaving both tables untouched.
func (b *Bridge) Deliver(address string, in Inbound) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("inbound delivery failed",
				zap.String("address", address),
				zap.String("request", in.RequestID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)
			b.obs.RequestDropped()
			ok = false
		}
	}()

	req := &Request{
		ID:        in.RequestID,
		Method:    in.Method,
		URI:       in.URI,
		Body:      in.Body,
		Headers:   syntheticHeaders(in, address),
		StartedAt: b.now(),
	}

	var target EventTarget
	b.g.update(func() {
		ep, found := b.endpoints[address]
		if !found {
			return
		}
		if _, dup := b.requests[req.ID]; dup {
			b.log.Warn("duplicate request id", zap.String("request", req.ID))
			return
		}
		ep.requests[req.ID] = req
		b.requests[req.ID] = &correlation{endpoint: ep, request: req}
		target = ep.target
		ok = true
		b.publishLocked()
	})
	if !ok {
		b.log.Debug("inbound request for released endpoint",
			zap.String("address", address),
			zap.String("request", in.RequestID),
		)
		b.obs.RequestDropped()
		return false
	}
	b.obs.RequestDelivered()

	// Outside the guard: the target is script-engine code.
	b.notify(target, EventHTTPRequest, req.ID, req.Method, req.Body)
	return true
}

// SetOutcome stores the script's response for requestID. A later call before
// the outcome is taken overwrites the earlier one. An empty contentType keeps
// whatever SetContentType chose, or text/plain.
func (b *Bridge) SetOutcome(requestID string, status int, body, contentType string) error {
	var found bool
	b.g.update(func() {
		c, ok := b.requests[requestID]
		if !ok {
			return
		}
		found = true
		r := c.request
		r.status = status
		r.responseBody = body
		if contentType != "" {
			r.contentType = contentType
		}
		if r.contentType == "" {
			r.contentType = defaultContentType
		}
		r.ready = true
	})
	if !found {
		b.log.Debug("outcome for unknown request", zap.String("request", requestID), zap.Int("status", status))
		return fmt.Errorf("set outcome %s: %w", requestID, ErrRequestNotFound)
	}
	return nil
}

// SetContentType picks the content type used when the outcome is sent.
func (b *Bridge) SetContentType(requestID, contentType string) error {
	var found bool
	b.g.update(func() {
		if c, ok := b.requests[requestID]; ok {
			c.request.contentType = contentType
			found = true
		}
	})
	if !found {
		b.log.Debug("content type for unknown request", zap.String("request", requestID))
		return fmt.Errorf("set content type %s: %w", requestID, ErrRequestNotFound)
	}
	return nil
}

// Header returns a header of an in-flight request, synthetic ones included.
// An exact key match wins over a case-insensitive one. Unknown requests and
// headers yield "".
func (b *Bridge) Header(requestID, name string) string {
	var v string
	b.g.view(func() {
		c, ok := b.requests[requestID]
		if !ok {
			return
		}
		h := c.request.Headers
		if exact, ok := h[name]; ok {
			v = exact
			return
		}
		for k, val := range h {
			if strings.EqualFold(k, name) {
				v = val
				return
			}
		}
	})
	return v
}
