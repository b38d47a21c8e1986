package devs

import (
	"fmt"
	"math"
)

// Never is the time advance of a model that has no internal event scheduled.
var Never = math.Inf(1)

// IsNever reports whether t stands for "no internal event".
func IsNever(t float64) bool {
	return math.IsInf(t, 1)
}

// VTime is a super-dense timestamp: the Index-th causal event happening at
// real time Real. VTimes are ordered lexicographically, Real first.
//
// Real coordinates are compared bit-exactly. Two events collide only if their
// Real fields are == as float64 values.
type VTime struct {
	Real  float64
	Index uint64
}

// Compare returns -1 if t is before o, 1 if t is after o, and 0 if the two
// timestamps are equal.
func (t VTime) Compare(o VTime) int {
	switch {
	case t.Real < o.Real:
		return -1
	case t.Real > o.Real:
		return 1
	case t.Index < o.Index:
		return -1
	case t.Index > o.Index:
		return 1
	default:
		return 0
	}
}

// Before reports whether t happens before o.
func (t VTime) Before(o VTime) bool {
	return t.Compare(o) < 0
}

// Equal reports whether t and o denote the same instant.
func (t VTime) Equal(o VTime) bool {
	return t.Real == o.Real && t.Index == o.Index
}

func (t VTime) String() string {
	return fmt.Sprintf("(%g, %d)", t.Real, t.Index)
}
