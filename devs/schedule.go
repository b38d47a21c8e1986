package devs

import (
	"fmt"
	"math"

	"github.com/google/btree"
)

// InputSchedule is the exogenous input schedule: inputs from the outside
// world, ordered by the real time at which they arrive.
type InputSchedule[P any] struct {
	tree *btree.BTree
}

type scheduledInputs[P any] struct {
	time   float64
	inputs []P
}

func (s *scheduledInputs[P]) Less(than btree.Item) bool {
	return s.time < than.(*scheduledInputs[P]).time
}

// NewInputSchedule creates an empty schedule.
func NewInputSchedule[P any]() *InputSchedule[P] {
	return &InputSchedule[P]{tree: btree.New(8)}
}

// Add schedules input to arrive at real time r. Inputs added for the same r
// are all delivered, in the order they were added.
func (s *InputSchedule[P]) Add(input P, r float64) {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		panic(fmt.Sprintf("devs: input time must be finite, got %v", r))
	}

	key := &scheduledInputs[P]{time: r}
	if found := s.tree.Get(key); found != nil {
		entry := found.(*scheduledInputs[P])
		entry.inputs = append(entry.inputs, input)

		return
	}

	key.inputs = []P{input}
	s.tree.ReplaceOrInsert(key)
}

// Len returns the number of distinct arrival times.
func (s *InputSchedule[P]) Len() int {
	return s.tree.Len()
}

// Ascend calls f for each arrival time in increasing order until f returns
// false.
func (s *InputSchedule[P]) Ascend(f func(r float64, inputs []P) bool) {
	s.tree.Ascend(func(item btree.Item) bool {
		entry := item.(*scheduledInputs[P])

		return f(entry.time, entry.inputs)
	})
}
