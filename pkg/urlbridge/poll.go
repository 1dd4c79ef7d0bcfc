package urlbridge

import "go.uber.org/zap"

// HasOutcome reports whether TakeOutcome would resolve requestID now.
//
// Unknown ids report true on purpose: a request that lost a race with a
// release or the reaper must still be resolved (as not found) instead of
// being polled until the transport gives up.
func (b *Bridge) HasOutcome(requestID string) bool {
	has := true
	b.g.view(func() {
		c, ok := b.requests[requestID]
		if !ok {
			return
		}
		has = c.request.ready || b.expired(c.request)
	})
	return has
}

// TakeOutcome hands over the response for requestID at most once.
//
// Expired requests yield the timeout outcome whether or not the script
// answered. Ready requests yield the script's response. Both are removed from
// every table. Unknown ids yield 404, pending ones OutcomePending.
func (b *Bridge) TakeOutcome(requestID string) Outcome {
	var c *correlation
	out := notFoundOutcome
	b.g.upgrade(
		func() bool {
			var ok bool
			if c, ok = b.requests[requestID]; !ok {
				out = notFoundOutcome
				return false
			}
			if !c.request.ready && !b.expired(c.request) {
				out = pendingOutcome
				return false
			}
			return true
		},
		func() {
			if b.expired(c.request) {
				out = timeoutOutcome
			} else {
				out = c.request.outcome()
			}
			b.removeLocked(requestID, c)
			b.publishLocked()
		},
	)
	b.record(requestID, out)
	return out
}

// NoOutcome is the transport's last call when its own timer fires first.
// It reaps the request if the window has elapsed.
func (b *Bridge) NoOutcome(requestID string) Outcome {
	var c *correlation
	out := notFoundOutcome
	b.g.upgrade(
		func() bool {
			var ok bool
			if c, ok = b.requests[requestID]; !ok {
				out = notFoundOutcome
				return false
			}
			out = pendingOutcome
			return b.expired(c.request)
		},
		func() {
			out = timeoutOutcome
			b.removeLocked(requestID, c)
			b.publishLocked()
		},
	)
	b.record(requestID, out)
	return out
}

// Reap removes requests whose poller went away. A request is only reaped
// once twice its window has elapsed, so a poller that is still alive always
// gets the timeout outcome first. It returns how many were removed.
func (b *Bridge) Reap() int {
	var n int
	b.g.update(func() {
		for id, c := range b.requests {
			if b.abandoned(c.request) {
				b.removeLocked(id, c)
				n++
			}
		}
		if n > 0 {
			b.publishLocked()
		}
	})
	if n > 0 {
		b.log.Debug("reaped expired requests", zap.Int("requests", n))
		for i := 0; i < n; i++ {
			b.obs.RequestTimedOut()
		}
	}
	return n
}

func (b *Bridge) removeLocked(requestID string, c *correlation) {
	delete(c.endpoint.requests, requestID)
	delete(b.requests, requestID)
}

func (b *Bridge) record(requestID string, out Outcome) {
	switch out.Kind {
	case OutcomeReady:
		b.obs.OutcomeTaken()
	case OutcomeTimeout:
		b.log.Debug("request timed out", zap.String("request", requestID))
		b.obs.RequestTimedOut()
	case OutcomeNotFound:
		b.log.Debug("poll for unknown request", zap.String("request", requestID))
	}
}
