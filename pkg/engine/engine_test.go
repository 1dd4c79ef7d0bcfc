package engine

import (
	"fmt"
	"sync"
	"testing"

	"github.com/joeydtaylor/steeze-urlbridge/pkg/urlbridge"
	"go.uber.org/zap/zaptest"
)

func TestHubFansOut(t *testing.T) {
	h := NewHub()
	var removed, reset, objects []string
	h.OnScriptRemoved(func(id string) { removed = append(removed, id) })
	h.OnScriptRemoved(func(id string) { removed = append(removed, "again:"+id) })
	h.OnScriptReset(func(id string) { reset = append(reset, id) })
	h.OnObjectRemoved(func(id string) { objects = append(objects, id) })
	h.OnObjectRemoved(nil)

	h.ScriptRemoved("s1")
	h.ScriptReset("s2")
	h.ObjectRemoved("o1")

	if len(removed) != 2 || removed[0] != "s1" || removed[1] != "again:s1" {
		t.Fatalf("removed = %v", removed)
	}
	if len(reset) != 1 || reset[0] != "s2" {
		t.Fatalf("reset = %v", reset)
	}
	if len(objects) != 1 || objects[0] != "o1" {
		t.Fatalf("objects = %v", objects)
	}
}

func TestQueueDrain(t *testing.T) {
	q := NewQueue(4, zaptest.NewLogger(t))
	target := q.Target("o1", "s1")
	target.PostEvent(urlbridge.EventHTTPRequest, "tok", urlbridge.URLRequestGranted, "http://x/")
	target.PostEvent(urlbridge.EventHTTPRequest, "R1", "GET", "")
	q.Target("o1", "s2").PostEvent("other")

	got := q.Drain("s1")
	if len(got) != 2 || got[0].Args[1] != urlbridge.URLRequestGranted || got[1].Args[0] != "R1" {
		t.Fatalf("drain = %+v", got)
	}
	if got := q.Drain("s1"); len(got) != 0 || got == nil {
		t.Fatalf("second drain = %#v", got)
	}
	if q.Len("s2") != 1 {
		t.Fatal("s2 events lost")
	}
}

func TestQueueDropsOldest(t *testing.T) {
	q := NewQueue(3, zaptest.NewLogger(t))
	for i := 0; i < 5; i++ {
		q.Push(Event{ScriptID: "s", Name: fmt.Sprint(i)})
	}
	got := q.Drain("s")
	if len(got) != 3 || got[0].Name != "2" || got[2].Name != "4" {
		t.Fatalf("drain = %+v", got)
	}
}

func TestQueueForgetOnLifecycle(t *testing.T) {
	h := NewHub()
	q := NewQueue(0, nil)
	q.Attach(h)
	q.Push(Event{ScriptID: "a"})
	q.Push(Event{ScriptID: "b"})

	h.ScriptRemoved("a")
	h.ScriptReset("b")
	if q.Len("a") != 0 || q.Len("b") != 0 {
		t.Fatal("queues survived lifecycle events")
	}
}

func TestQueueConcurrentPush(t *testing.T) {
	q := NewQueue(1000, nil)
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				q.Push(Event{ScriptID: "s", Name: fmt.Sprintf("%d-%d", i, j)})
			}
		}(i)
	}
	wg.Wait()
	if n := q.Len("s"); n != 500 {
		t.Fatalf("len = %d", n)
	}
}

func TestQueueForgetOnObjectRemoved(t *testing.T) {
	h := NewHub()
	q := NewQueue(0, zaptest.NewLogger(t))
	q.Attach(h)
	q.Target("obj", "s1").PostEvent(urlbridge.EventHTTPRequest, "tok", urlbridge.URLRequestGranted, "http://x/")
	q.Target("obj", "s2").PostEvent(urlbridge.EventHTTPRequest, "R1", "GET", "")
	q.Target("other", "s3").PostEvent(urlbridge.EventHTTPRequest, "R2", "GET", "")

	h.ObjectRemoved("obj")
	if q.Len("s1") != 0 || q.Len("s2") != 0 {
		t.Fatal("queues of the removed object survived")
	}
	if q.Len("s3") != 1 {
		t.Fatal("unrelated object lost its events")
	}

	// the script's owner is forgotten with its queue
	h.ScriptRemoved("s3")
	q.Push(Event{ScriptID: "s3", Name: "late"})
	h.ObjectRemoved("other")
	if q.Len("s3") != 1 {
		t.Fatal("stale owner cleared a fresh queue")
	}
}

func TestHubSubscribeWhileFiring(t *testing.T) {
	h := NewHub()
	var calls int
	h.OnScriptRemoved(func(string) {
		calls++
		h.OnScriptRemoved(func(string) { calls += 10 })
	})
	h.ScriptRemoved("s")
	if calls != 1 {
		t.Fatalf("calls after first fire = %d", calls)
	}
	h.ScriptRemoved("s")
	if calls != 12 {
		t.Fatalf("calls after second fire = %d", calls)
	}
}
