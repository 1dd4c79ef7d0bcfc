package engine

import (
	"slices"
	"sync"
)

// Hub fans script-engine lifecycle notifications out to subscribers.
// It implements urlbridge.LifecycleSource.
type Hub struct {
	mu      sync.RWMutex
	removed []func(string)
	objects []func(string)
	reset   []func(string)
}

func NewHub() *Hub { return &Hub{} }

func (h *Hub) OnScriptRemoved(fn func(scriptID string)) { h.add(&h.removed, fn) }
func (h *Hub) OnObjectRemoved(fn func(objectID string)) { h.add(&h.objects, fn) }
func (h *Hub) OnScriptReset(fn func(scriptID string))   { h.add(&h.reset, fn) }

func (h *Hub) add(list *[]func(string), fn func(string)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	*list = append(*list, fn)
	h.mu.Unlock()
}

// ScriptRemoved tells every subscriber the script is gone.
func (h *Hub) ScriptRemoved(scriptID string) { h.fire(&h.removed, scriptID) }

// ObjectRemoved tells every subscriber the object and its scripts are gone.
func (h *Hub) ObjectRemoved(objectID string) { h.fire(&h.objects, objectID) }

// ScriptReset tells every subscriber the script restarted from scratch.
func (h *Hub) ScriptReset(scriptID string) { h.fire(&h.reset, scriptID) }

// fire copies the subscriber list so callbacks run without the hub lock.
func (h *Hub) fire(list *[]func(string), id string) {
	h.mu.RLock()
	fns := slices.Clone(*list)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(id)
	}
}
