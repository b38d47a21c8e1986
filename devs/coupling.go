package devs

import "sort"

// Couplings is a one-hop routing relation: each source, World included, has
// at most one destination. A later coupling for the same source replaces the
// earlier one.
type Couplings struct {
	dst map[ModelID]ModelID
}

// NewCouplings creates an empty coupling graph.
func NewCouplings() *Couplings {
	return &Couplings{dst: make(map[ModelID]ModelID)}
}

// Add routes the output of src to dst.
func (c *Couplings) Add(src, dst ModelID) {
	c.dst[src] = dst
}

// Destination returns where the output of src goes.
func (c *Couplings) Destination(src ModelID) (ModelID, bool) {
	dst, ok := c.dst[src]

	return dst, ok
}

// Sources lists every source with a destination, in ascending order. World,
// being negative, comes first.
func (c *Couplings) Sources() []ModelID {
	srcs := make([]ModelID, 0, len(c.dst))
	for src := range c.dst {
		srcs = append(srcs, src)
	}

	sort.Slice(srcs, func(i, j int) bool { return srcs[i] < srcs[j] })

	return srcs
}
