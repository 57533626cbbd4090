// Mgmt
// Copyright (C) 2013-2020+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

// Package planner implements the Combination, Projection and
// Combine-and-Project planners of spec.md §4.4-4.6: symbolic planning over
// schedule.Handle values, emitting schedule.Operator values that minimize
// operation count and peak memory.
package planner

import (
	"container/heap"
	"fmt"

	"github.com/infersched/schedcore/schedule"
	"github.com/infersched/schedcore/table"
)

// handleHeap is a min-heap over handles keyed by domain size, tie-broken
// deterministically on handle id. It is the priority structure spec.md §4.4
// asks the CombinationPlanner to maintain.
type handleHeap []*schedule.Handle

func (h handleHeap) Len() int { return len(h) }
func (h handleHeap) Less(i, j int) bool {
	si, sj := h[i].DomainSize(), h[j].DomainSize()
	if si != sj {
		return si < sj
	}
	return h[i].ID() < h[j].ID()
}
func (h handleHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *handleHeap) Push(x interface{}) { *h = append(*h, x.(*schedule.Handle)) }
func (h *handleHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// Combiner is the CombinationPlanner of spec.md §4.4: given a nonempty set
// of handles and a combine functor, it collapses them into one handle via a
// greedy minimum-size (Huffman-like) pairing, which minimizes the sum of
// intermediate table sizes for the canonical case.
type Combiner struct {
	Fn table.CombineFunc
}

// NewCombiner returns a Combiner using fn to build each pairwise combine.
func NewCombiner(fn table.CombineFunc) *Combiner {
	return &Combiner{Fn: fn}
}

// Operations plans a sequence of CombineOps collapsing handles into one,
// without mutating any Schedule. It returns the ops in emission order and
// the single final handle.
func (c *Combiner) Operations(handles []*schedule.Handle) ([]*schedule.Operator, *schedule.Handle, error) {
	if len(handles) == 0 {
		return nil, nil, fmt.Errorf("planner: Combiner.Operations: no handles given")
	}
	h := make(handleHeap, len(handles))
	copy(h, handles)
	heap.Init(&h)

	var ops []*schedule.Operator
	for h.Len() > 1 {
		a := heap.Pop(&h).(*schedule.Handle)
		b := heap.Pop(&h).(*schedule.Handle)
		op := schedule.NewCombine(a, b, c.Fn)
		ops = append(ops, op)
		heap.Push(&h, op.Results()[0])
	}
	return ops, h[0], nil
}

// Schedule plans the same sequence as Operations but appends each op into
// sched as it is produced, returning the final handle as registered in
// sched. InsertOperation clones every op it accepts and assigns its result a
// fresh id, so later ops in the sequence that reference an earlier op's
// (pre-insertion) result handle must be remapped to the id sched actually
// registered.
func (c *Combiner) Schedule(sched *schedule.Schedule, handles []*schedule.Handle, persistentResults bool) (*schedule.Handle, error) {
	ops, final, err := c.Operations(handles)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return final, nil
	}
	remap := make(map[uint64]*schedule.Handle, len(ops)+1)
	var last *schedule.Handle
	for _, op := range ops {
		a, b := op.Args()[0], op.Args()[1]
		if r, ok := remap[a.ID()]; ok {
			a = r
		}
		if r, ok := remap[b.ID()]; ok {
			b = r
		}
		node, err := sched.InsertOperation(schedule.NewCombine(a, b, c.Fn), persistentResults)
		if err != nil {
			return nil, err
		}
		inserted, _ := sched.Operation(node)
		last = inserted.Results()[0]
		remap[op.Results()[0].ID()] = last
	}
	return last, nil
}

// NbOperations returns the planner's cost estimate for collapsing handles:
// the sum of each emitted Combine's result domain size (the cost model
// worked out in SPEC_FULL.md from the original implementation).
func (c *Combiner) NbOperations(handles []*schedule.Handle) uint64 {
	ops, _, err := c.Operations(handles)
	if err != nil {
		return 0
	}
	return sumResultSizes(ops)
}

// MemoryUsage returns (peak, final) byte-equivalent table-cell counts for
// collapsing handles: final is the last handle's domain size; peak is the
// largest simultaneous total across the simulated combine sequence.
func (c *Combiner) MemoryUsage(handles []*schedule.Handle) (peak, final uint64) {
	ops, last, err := c.Operations(handles)
	if err != nil {
		return 0, 0
	}
	live := make(map[uint64]uint64, len(handles))
	for _, h := range handles {
		live[h.ID()] = h.DomainSize()
	}
	total := sumValues(live)
	if total > peak {
		peak = total
	}
	for _, op := range ops {
		for _, a := range op.Args() {
			delete(live, a.ID())
		}
		r := op.Results()[0]
		live[r.ID()] = r.DomainSize()
		total = sumValues(live)
		if total > peak {
			peak = total
		}
	}
	if last != nil {
		final = last.DomainSize()
	}
	return peak, final
}

// Execute combines handles ad-hoc into a concrete table, for callers not
// using a Schedule.
func (c *Combiner) Execute(handles []*schedule.Handle) (table.Table, error) {
	if len(handles) == 0 {
		return nil, fmt.Errorf("planner: Combiner.Execute: no handles given")
	}
	ops, last, err := c.Operations(handles)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return handles[0].Table(), nil
	}
	for _, op := range ops {
		if err := op.Execute(); err != nil {
			return nil, err
		}
	}
	return last.Table(), nil
}

func sumValues(m map[uint64]uint64) uint64 {
	var total uint64
	for _, v := range m {
		total += v
	}
	return total
}

func sumResultSizes(ops []*schedule.Operator) uint64 {
	var total uint64
	for _, op := range ops {
		total += resultCost(op)
	}
	return total
}
