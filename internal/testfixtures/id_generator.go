package testfixtures

import "sync"

// IDSequence produces deterministic session ids for tests.
type IDSequence struct {
	mu   sync.Mutex
	next int64
}

// NewIDSequence returns a sequence whose first id is start. A start of zero
// or less begins at 1.
func NewIDSequence(start int64) *IDSequence {
	if start <= 0 {
		start = 1
	}
	return &IDSequence{next: start}
}

// Next returns the next id.
func (g *IDSequence) Next() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	id := g.next
	g.next++
	return id
}

// NextFunc exposes Next as a function suitable for dependency injection.
func (g *IDSequence) NextFunc() func() int64 {
	if g == nil {
		return func() int64 { return 0 }
	}
	return g.Next
}

// Reset makes the sequence yield start next.
func (g *IDSequence) Reset(start int64) {
	g.mu.Lock()
	g.next = start
	g.mu.Unlock()
}
