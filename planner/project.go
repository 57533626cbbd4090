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

package planner

import (
	"github.com/infersched/schedcore/schedule"
	"github.com/infersched/schedcore/table"
)

// Projector is the ProjectionPlanner of spec.md §4.5: given a handle and a
// set of variables to remove, it emits a single ProjectOp, or nothing (and
// the handle unchanged) if none of the variables to remove actually appear
// in the handle.
type Projector struct {
	Fn table.ProjectFunc
}

// NewProjector returns a Projector using fn to build the project op.
func NewProjector(fn table.ProjectFunc) *Projector {
	return &Projector{Fn: fn}
}

// Operations plans zero or one ProjectOp for h, removing d ∩ Variables(h).
// If d ∩ Variables(h) is empty, it returns no op and h unchanged.
func (p *Projector) Operations(h *schedule.Handle, d table.VarSet) ([]*schedule.Operator, *schedule.Handle) {
	del := h.Variables().Intersect(d)
	if del.Empty() {
		return nil, h
	}
	op := schedule.NewProject(h, del, p.Fn)
	return []*schedule.Operator{op}, op.Results()[0]
}

// Schedule plans the same as Operations but appends the op (if any) into
// sched.
func (p *Projector) Schedule(sched *schedule.Schedule, h *schedule.Handle, d table.VarSet, persistentResults bool) (*schedule.Handle, error) {
	ops, result := p.Operations(h, d)
	if len(ops) == 0 {
		return result, nil
	}
	node, err := sched.InsertOperation(ops[0], persistentResults)
	if err != nil {
		return nil, err
	}
	inserted, _ := sched.Operation(node)
	return inserted.Results()[0], nil
}

// NbOperations returns the cost of projecting h by d: the domain size of the
// table being summed out, i.e. h itself, or zero if nothing is projected
// away. A ProjectOp scans its input, not its (smaller) output, so cost
// tracks the input to stay consistent with resultCost in cost.go.
func (p *Projector) NbOperations(h *schedule.Handle, d table.VarSet) uint64 {
	ops, _ := p.Operations(h, d)
	if len(ops) == 0 {
		return 0
	}
	return h.DomainSize()
}

// Execute projects h's table ad-hoc, for callers not using a Schedule.
func (p *Projector) Execute(h *schedule.Handle, d table.VarSet) (table.Table, error) {
	del := h.Variables().Intersect(d)
	if del.Empty() {
		return h.Table(), nil
	}
	return p.Fn(h.Table(), del)
}
