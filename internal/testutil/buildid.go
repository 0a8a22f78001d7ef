package testutil

import (
	"fmt"
	"sync"
)

// SequenceGenerator produces build ids "build-0001", "build-0002", ...
//
// Unlike compiler.FixedGenerator it never runs out, and it can be reset
// so the same scenario run twice yields identical ids.
//
// Thread-safety: all methods are safe for concurrent use.
type SequenceGenerator struct {
	mu  sync.Mutex
	seq int
}

// NewSequenceGenerator creates a generator whose first id is build-0001.
func NewSequenceGenerator() *SequenceGenerator {
	return &SequenceGenerator{}
}

// Generate returns the next id in sequence.
func (g *SequenceGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("build-%04d", g.seq)
}

// Current returns how many ids have been generated.
func (g *SequenceGenerator) Current() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}

// Reset restarts the sequence at build-0001.
func (g *SequenceGenerator) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq = 0
}

// ConstantGenerator returns the same build id every time. Scenario
// snapshots use it so that output does not depend on how many builds
// ran before.
//
// Thread-safety: ConstantGenerator is stateless and safe for concurrent use.
type ConstantGenerator struct {
	id string
}

// NewConstantGenerator returns a generator for id, or for
// "test-build-default" when id is empty.
func NewConstantGenerator(id string) *ConstantGenerator {
	if id == "" {
		id = "test-build-default"
	}
	return &ConstantGenerator{id: id}
}

// Generate returns the fixed id.
func (g *ConstantGenerator) Generate() string {
	return g.id
}
