package testutil

import (
	"fmt"
	"sync"
)

// FixedRunIDGenerator returns predictable compilation run ids for tests:
// the prefix alone on the first call, then prefix-2, prefix-3 and so on.
// An empty prefix defaults to "test-run".
type FixedRunIDGenerator struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewFixedRunIDGenerator creates a generator for prefix.
func NewFixedRunIDGenerator(prefix string) *FixedRunIDGenerator {
	if prefix == "" {
		prefix = "test-run"
	}
	return &FixedRunIDGenerator{prefix: prefix}
}

// Generate returns the next run id.
func (g *FixedRunIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n == 1 {
		return g.prefix
	}
	return fmt.Sprintf("%s-%d", g.prefix, g.n)
}
