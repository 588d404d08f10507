package testutil

import (
	"strconv"
	"sync"

	"github.com/roach88/pgstar/internal/rdf"
)

// DeterministicBlankNodes mints t1, t2, ... and can be reset so that the same
// scenario produces identical labels on every run.
//
// Unlike schema.CounterBlankNodes it is safe for concurrent use, so tests can
// share one factory across parallel subtests.
type DeterministicBlankNodes struct {
	mu     sync.Mutex
	prefix string
	n      int
}

// NewDeterministicBlankNodes returns a factory using prefix. An empty prefix
// means "t".
func NewDeterministicBlankNodes(prefix string) *DeterministicBlankNodes {
	if prefix == "" {
		prefix = "t"
	}
	return &DeterministicBlankNodes{prefix: prefix}
}

// Next returns the next blank node. The first call returns prefix1.
func (f *DeterministicBlankNodes) Next() rdf.BlankNode {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return rdf.BlankNode(f.prefix + strconv.Itoa(f.n))
}

// Count returns how many blank nodes were minted since the last reset.
func (f *DeterministicBlankNodes) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.n
}

// Reset restarts numbering at 1.
func (f *DeterministicBlankNodes) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n = 0
}
