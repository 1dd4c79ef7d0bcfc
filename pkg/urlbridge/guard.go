package urlbridge

import "sync"

// guard is the single exclusion domain for the endpoint registry and the
// correlation table. Nothing else in the package takes a lock on them.
type guard struct {
	mu sync.RWMutex
}

// view runs fn with shared access. fn must not mutate either table.
func (g *guard) view(fn func()) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	fn()
}

// update runs fn with exclusive access.
func (g *guard) update(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// upgrade is check-then-act. check runs first under shared access; if it
// reports that mutation is needed, the exclusive lock is taken and check runs
// again before act. Only the decision made under the exclusive lock counts,
// so no writer can slip in between the decision and act.
//
// check may therefore run twice and must be free of side effects other than
// recording what it saw.
func (g *guard) upgrade(check func() bool, act func()) {
	var need bool
	g.view(func() { need = check() })
	if !need {
		return
	}
	g.update(func() {
		if check() {
			act()
		}
	})
}
