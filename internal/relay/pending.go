// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package relay

// pendingTable maps correlation ids to waiting callers. It is owned by a
// single goroutine and is not safe for concurrent use.
type pendingTable[T any] struct {
	m map[string]T
}

func newPendingTable[T any]() *pendingTable[T] {
	return &pendingTable[T]{m: make(map[string]T)}
}

// put registers v under id, replacing any earlier entry.
func (p *pendingTable[T]) put(id string, v T) {
	p.m[id] = v
}

// take removes and returns the entry for id. The second result is false
// for unknown or already consumed ids.
func (p *pendingTable[T]) take(id string) (T, bool) {
	v, ok := p.m[id]
	if ok {
		delete(p.m, id)
	}
	return v, ok
}

// expire drops id without returning it.
func (p *pendingTable[T]) expire(id string) bool {
	_, ok := p.take(id)
	return ok
}

// drain removes and returns every entry.
func (p *pendingTable[T]) drain() []T {
	out := make([]T, 0, len(p.m))
	for id, v := range p.m {
		out = append(out, v)
		delete(p.m, id)
	}
	return out
}

func (p *pendingTable[T]) len() int { return len(p.m) }
