// Package idgen provides the ID generators used to label events and runs.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/rs/xid"
)

// Generator produces unique identifiers.
type Generator interface {
	Generate() string
}

// NewSequential returns a generator whose first emitted ID is "1". IDs from a
// sequential generator are reproducible from run to run, so it is the default
// for event IDs.
func NewSequential() Generator {
	return &sequentialGenerator{}
}

// NewPrefixed returns a sequential generator whose IDs carry the given prefix,
// for example "evt-1", "evt-2".
func NewPrefixed(prefix string) Generator {
	return &sequentialGenerator{prefix: prefix}
}

type sequentialGenerator struct {
	prefix string
	next   uint64
}

func (g *sequentialGenerator) Generate() string {
	n := atomic.AddUint64(&g.next, 1)

	return g.prefix + strconv.FormatUint(n, 10)
}

// NewGlobal returns a generator backed by xid. IDs are globally unique but not
// deterministic.
func NewGlobal() Generator {
	return globalGenerator{}
}

type globalGenerator struct{}

func (globalGenerator) Generate() string {
	return xid.New().String()
}

// NewRunID returns a fresh, globally unique identifier for a simulation run.
// It is used to name trace files that the user did not name explicitly.
func NewRunID() string {
	return xid.New().String()
}
