package reactive

import (
	"slices"
	"sync"
)

// Computed memoizes a derived value and recomputes it on read only when one
// of its dependencies reports a new version.
type Computed[T any] struct {
	compute func() T
	deps    []Versioned

	mu    sync.Mutex
	seen  []uint64
	value T
	valid bool
}

// NewComputed creates a Computed that derives its value with compute from deps.
func NewComputed[T any](compute func() T, deps ...Versioned) *Computed[T] {
	return &Computed[T]{compute: compute, deps: deps}
}

// Get returns the current derived value, recomputing it if any dependency changed.
func (c *Computed[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Versions are captured before computing so a concurrent change forces the next Get to recompute.
	versions := c.versions()
	if c.valid && slices.Equal(versions, c.seen) {
		return c.value
	}

	c.value = c.compute()
	c.seen = versions
	c.valid = true
	return c.value
}

// Version sums the dependency versions, letting Computed values be chained as dependencies.
func (c *Computed[T]) Version() uint64 {
	var v uint64
	for _, d := range c.deps {
		v += d.Version()
	}
	return v
}

func (c *Computed[T]) versions() []uint64 {
	out := make([]uint64, len(c.deps))
	for i, d := range c.deps {
		out[i] = d.Version()
	}
	return out
}
