package mocks

import (
	"fmt"
	"sync"

	"github.com/mcoot/pokerstats/internal/dependencies/ids"
)

// SequentialIDs hands out queued ids first, then "<prefix>-N" in order
type SequentialIDs struct {
	mu     sync.Mutex
	prefix string
	queued []string
	next   int
}

var _ ids.Generator = (*SequentialIDs)(nil)

// NewSequentialIDs creates a generator producing prefix-1, prefix-2, ...
func NewSequentialIDs(prefix string) *SequentialIDs {
	return &SequentialIDs{prefix: prefix}
}

// Queue adds explicit ids to return before falling back to the sequence
func (g *SequentialIDs) Queue(values ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.queued = append(g.queued, values...)
}

// NewID returns the next id
func (g *SequentialIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.next++
	return fmt.Sprintf("%s-%d", g.prefix, g.next)
}
