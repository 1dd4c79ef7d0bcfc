package engine

import (
	"sync"
	"time"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"go.uber.org/zap"
)

// Event is one script event waiting to be picked up by a remote engine.
type Event struct {
	ObjectID  string    `json:"object_id,omitempty"`
	ScriptID  string    `json:"script_id"`
	Name      string    `json:"name"`
	Args      []any     `json:"args"`
	Timestamp time.Time `json:"timestamp"`
}

// Queue buffers events per script until the engine polls for them.
type Queue struct {
	depth int
	log   *zap.Logger

	// mu protects events and owners
	mu     sync.Mutex
	events map[string][]Event
	owners map[string]string // script id -> object id
}

// NewQueue keeps at most depth events per script; older ones are dropped
// first. depth <= 0 means 256.
func NewQueue(depth int, log *zap.Logger) *Queue {
	if depth <= 0 {
		depth = 256
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Queue{
		depth:  depth,
		log:    log,
		events: make(map[string][]Event),
		owners: make(map[string]string),
	}
}

// Target returns the event target that feeds scriptID's queue. objectID
// ties the queue to its object so ObjectRemoved can clear it.
func (q *Queue) Target(objectID, scriptID string) urlbridge.EventTarget {
	if objectID != "" {
		q.mu.Lock()
		q.owners[scriptID] = objectID
		q.mu.Unlock()
	}
	return urlbridge.EventTargetFunc(func(name string, args ...any) {
		q.Push(Event{ObjectID: objectID, ScriptID: scriptID, Name: name, Args: args, Timestamp: time.Now()})
	})
}

// Push appends ev to its script's queue. It never blocks.
func (q *Queue) Push(ev Event) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if ev.ObjectID != "" {
		q.owners[ev.ScriptID] = ev.ObjectID
	}
	list := append(q.events[ev.ScriptID], ev)
	if over := len(list) - q.depth; over > 0 {
		q.log.Warn("event queue full, dropping oldest",
			zap.String("script", ev.ScriptID),
			zap.Int("dropped", over),
		)
		list = append([]Event(nil), list[over:]...)
	}
	q.events[ev.ScriptID] = list
}

// Drain returns and clears every queued event for scriptID.
func (q *Queue) Drain(scriptID string) []Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	list := q.events[scriptID]
	delete(q.events, scriptID)
	if list == nil {
		return []Event{}
	}
	return list
}

// Forget drops a script's queue, e.g. once the script is removed.
func (q *Queue) Forget(scriptID string) {
	q.mu.Lock()
	delete(q.events, scriptID)
	delete(q.owners, scriptID)
	q.mu.Unlock()
}

// ForgetObject drops the queues of every script owned by objectID.
func (q *Queue) ForgetObject(objectID string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for script, owner := range q.owners {
		if owner == objectID {
			delete(q.events, script)
			delete(q.owners, script)
		}
	}
}

// Len is the number of events queued for scriptID.
func (q *Queue) Len(scriptID string) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events[scriptID])
}

// Attach clears a script's queue whenever the script is removed or reset,
// or its object is removed.
func (q *Queue) Attach(h *Hub) {
	h.OnScriptRemoved(q.Forget)
	h.OnScriptReset(q.Forget)
	h.OnObjectRemoved(q.ForgetObject)
}
