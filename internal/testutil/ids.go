package testutil

import (
	"fmt"
	"sync"
)

// SequentialIDGenerator mints prefix-1, prefix-2, ... so ids stay
// readable in failure output and stable across runs. Unlike
// engine.FixedGenerator it never exhausts, which suits scenarios that
// do not know their id count up front.
//
// Thread-safety: safe for concurrent use via internal mutex.
type SequentialIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequentialIDGenerator creates a generator with the given prefix.
// An empty prefix defaults to "id".
func NewSequentialIDGenerator(prefix string) *SequentialIDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &SequentialIDGenerator{prefix: prefix}
}

// Generate returns the next id in sequence.
// Implements engine.IDGenerator.
func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
