package urlbridge

import (
	"errors"

	"go.uber.org/zap"
)

// Allocation is the answer to Allocate. Token is always set, granted or not.
type Allocation struct {
	Token   string
	Address string
	Granted bool
	// Reason is ErrCapacityExceeded, ErrSecureUnavailable, ErrTokenInUse or a
	// transport registration error when Granted is false.
	Reason error
}

// Allocate reserves a fresh endpoint for a script.
//
// The granted/denied event is posted to target before Allocate returns and
// while the guard is still held, so the event can never contradict the
// capacity a concurrent caller observes. target may be nil.
func (b *Bridge) Allocate(objectID, scriptID string, target EventTarget, secure bool) Allocation {
	a := Allocation{Token: b.newToken()}

	b.g.update(func() {
		t := b.transportFor(secure)
		switch {
		case t == nil:
			a.Reason = ErrSecureUnavailable
		case len(b.endpoints) >= b.cfg.Capacity:
			a.Reason = ErrCapacityExceeded
		}
		if a.Reason == nil {
			ep := &Endpoint{
				Address:  buildAddress(secure, b.cfg.ExternalHost, t.Port(), a.Token),
				Token:    a.Token,
				ObjectID: objectID,
				ScriptID: scriptID,
				Secure:   secure,
				target:   target,
				requests: make(map[string]*Request),
			}
			_, addrTaken := b.endpoints[ep.Address]
			_, tokenTaken := b.tokens[ep.Token]
			if addrTaken || tokenTaken {
				a.Reason = ErrTokenInUse
			} else if err := t.Register(ep.path(), b.handlersFor(ep.Address), b.cfg.Timeout); err != nil {
				a.Reason = err
			} else {
				b.endpoints[ep.Address] = ep
				b.tokens[ep.Token] = ep.Address
				a.Address = ep.Address
				a.Granted = true
			}
		}
		b.publishLocked()

		if a.Granted {
			b.notify(target, EventHTTPRequest, a.Token, URLRequestGranted, a.Address)
		} else {
			b.notify(target, EventHTTPRequest, a.Token, URLRequestDenied, "")
		}
	})

	if a.Granted {
		b.log.Debug("endpoint granted",
			zap.String("address", a.Address),
			zap.String("script", scriptID),
			zap.String("object", objectID),
		)
		b.obs.EndpointGranted(secure)
	} else {
		b.log.Info("endpoint denied",
			zap.String("token", a.Token),
			zap.String("script", scriptID),
			zap.String("object", objectID),
			zap.Bool("secure", secure),
			zap.Error(a.Reason),
		)
		b.obs.EndpointDenied(a.Reason)
	}
	return a
}

func (b *Bridge) handlersFor(address string) PollHandlers {
	return PollHandlers{
		Deliver:     func(in Inbound) bool { return b.Deliver(address, in) },
		HasOutcome:  b.HasOutcome,
		TakeOutcome: b.TakeOutcome,
		NoOutcome:   b.NoOutcome,
	}
}

// releaseLocked removes ep, its requests and its transport route. The caller
// holds the guard exclusively. It returns how many requests were cascaded.
func (b *Bridge) releaseLocked(ep *Endpoint) int {
	n := len(ep.requests)
	for id := range ep.requests {
		delete(b.requests, id)
	}
	ep.requests = nil
	if t := b.transportFor(ep.Secure); t != nil {
		t.Unregister(ep.path())
	}
	delete(b.tokens, ep.Token)
	delete(b.endpoints, ep.Address)
	return n
}

// Release frees the endpoint at address together with every request still
// waiting on it. It reports false when nothing was allocated there.
func (b *Bridge) Release(address string) bool {
	var found bool
	var cascaded int
	b.g.update(func() {
		ep, ok := b.endpoints[address]
		if !ok {
			return
		}
		found = true
		cascaded = b.releaseLocked(ep)
		b.publishLocked()
	})
	if !found {
		b.log.Debug("release of unknown endpoint", zap.String("address", address))
		return false
	}
	b.log.Debug("endpoint released", zap.String("address", address), zap.Int("requests", cascaded))
	b.obs.EndpointsReleased(1, cascaded)
	return true
}

// ReleaseToken is Release keyed by the allocation token.
func (b *Bridge) ReleaseToken(token string) bool {
	addr, err := b.AddressForToken(token)
	if err != nil {
		return false
	}
	return b.Release(addr)
}

// ReleaseAllOwnedBy frees every endpoint that o matches, in one exclusive
// section. It returns the number of endpoints released.
func (b *Bridge) ReleaseAllOwnedBy(o Owner) int {
	return b.releaseWhere(func(ep *Endpoint) bool { return ep.ownedBy(o) }, o.String())
}

// ReleaseAll frees every endpoint. Used at shutdown.
func (b *Bridge) ReleaseAll() int {
	return b.releaseWhere(func(*Endpoint) bool { return true }, "all")
}

func (b *Bridge) releaseWhere(match func(*Endpoint) bool, label string) int {
	var released, cascaded int
	b.g.update(func() {
		for _, ep := range b.endpoints {
			if match(ep) {
				cascaded += b.releaseLocked(ep)
				released++
			}
		}
		if released > 0 {
			b.publishLocked()
		}
	})
	if released > 0 {
		b.log.Debug("endpoints released",
			zap.String("owner", label),
			zap.Int("endpoints", released),
			zap.Int("requests", cascaded),
		)
		b.obs.EndpointsReleased(released, cascaded)
	}
	return released
}

// RemainingCapacity is how many more endpoints can be granted right now.
func (b *Bridge) RemainingCapacity() int {
	var n int
	b.g.view(func() { n = b.cfg.Capacity - len(b.endpoints) })
	if n < 0 {
		return 0
	}
	return n
}

// Lookup returns a copy of the endpoint at address.
func (b *Bridge) Lookup(address string) (EndpointInfo, error) {
	var info EndpointInfo
	var ok bool
	b.g.view(func() {
		var ep *Endpoint
		if ep, ok = b.endpoints[address]; ok {
			info = ep.info()
		}
	})
	if !ok {
		return EndpointInfo{}, ErrEndpointNotFound
	}
	return info, nil
}

// AddressForToken maps an allocation token back to its address.
func (b *Bridge) AddressForToken(token string) (string, error) {
	var addr string
	var ok bool
	b.g.view(func() { addr, ok = b.tokens[token] })
	if !ok {
		return "", ErrEndpointNotFound
	}
	return addr, nil
}

// IsDenial reports whether err is one of the structured allocation denials.
func IsDenial(err error) bool {
	return errors.Is(err, ErrCapacityExceeded) || errors.Is(err, ErrSecureUnavailable)
}
