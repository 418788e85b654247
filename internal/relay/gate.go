// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

// gate holds values until it is opened, then passes them straight through.
// Not safe for concurrent use.
type gate[T any] struct {
	ready bool
	queue []T
}

// do runs fn on v now if the gate is open, otherwise queues v.
func (g *gate[T]) do(v T, fn func(T)) {
	if g.ready {
		fn(v)
		return
	}
	g.queue = append(g.queue, v)
}

// open flushes the queue through fn in arrival order. It reports false,
// and does nothing, if the gate was already open.
func (g *gate[T]) open(fn func(T)) bool {
	if g.ready {
		return false
	}
	g.ready = true
	queued := g.queue
	g.queue = nil
	for _, v := range queued {
		fn(v)
	}
	return true
}

func (g *gate[T]) queued() int { return len(g.queue) }
