package testutil

import (
	"fmt"
	"sync"
)

// FixedTagGenerator returns predetermined merge tags for testing.
//
// This enables deterministic merge identifiers and golden trace comparison.
//
// Thread-safety: FixedTagGenerator is safe for concurrent use via internal mutex.
type FixedTagGenerator struct {
	mu   sync.Mutex
	tags []string
	idx  int
}

// NewFixedTagGenerator creates a generator that returns tags in order.
//
// Example:
//
//	gen := NewFixedTagGenerator("m1", "m2")
//	gen.Generate() // "m1"
//	gen.Generate() // "m2"
//	gen.Generate() // panic: all tags exhausted
func NewFixedTagGenerator(tags ...string) *FixedTagGenerator {
	return &FixedTagGenerator{tags: tags}
}

// Generate returns the next predetermined tag.
//
// Panics if all tags have been consumed. This is a fail-fast approach
// to catch tests that merge more often than they expect.
func (g *FixedTagGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.idx >= len(g.tags) {
		panic("FixedTagGenerator: all tags exhausted")
	}
	tag := g.tags[g.idx]
	g.idx++
	return tag
}

// SequenceTagGenerator returns prefix1, prefix2, ... and never runs out.
//
// Thread-safety: SequenceTagGenerator is safe for concurrent use via internal mutex.
type SequenceTagGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewSequenceTagGenerator creates a sequence generator.
// If prefix is empty, tags look like "merge1".
func NewSequenceTagGenerator(prefix string) *SequenceTagGenerator {
	if prefix == "" {
		prefix = "merge"
	}
	return &SequenceTagGenerator{prefix: prefix}
}

// Generate returns the next tag in the sequence.
func (g *SequenceTagGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("%s%d", g.prefix, g.n)
}
