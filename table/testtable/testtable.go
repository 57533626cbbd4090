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

// Package testtable is a reference Table/Variable implementation backed by a
// flat, row-major []float64. It exists so the scheduler's, planner's and
// executor's tests have real Combine/Project functors to run against, the same way pgraph_test.go's NV helper gives the graph tests a
// real (if trivial) resources.Res to hang vertices off of.
package testtable

import (
	"fmt"
	"math"

	"github.com/infersched/schedcore/table"
)

// Var is a minimal table.Variable.
type Var struct {
	id   uint64
	name string
	size uint32
}

// NewVar builds a variable with the given id, name and domain size.
func NewVar(id uint64, name string, size uint32) *Var {
	return &Var{id: id, name: name, size: size}
}

// ID implements table.Variable.
func (v *Var) ID() uint64 { return v.id }

// DomainSize implements table.Variable.
func (v *Var) DomainSize() uint32 { return v.size }

// Name implements table.Variable.
func (v *Var) Name() string { return v.name }

// Table is a dense table.Table over a fixed, sorted slice of variables.
type Table struct {
	vars   []table.Variable // sorted by id; defines the row-major order
	values []float64
}

// New builds a Table over vars, filled with values in row-major order over
// vars as given. The table stores its variables sorted by ascending id and
// re-indexes values to that order. len(values) must equal the product of the
// variables' domain sizes.
func New(vars []table.Variable, values []float64) *Table {
	sorted := table.NewVarSet(vars...).Sorted()
	given := &Table{vars: vars, values: values}
	return &Table{vars: sorted, values: given.alignedTo(sorted)}
}

// Variables implements table.Table.
func (t *Table) Variables() table.VarSet { return table.NewVarSet(t.vars...) }

// DomainSize implements table.Table.
func (t *Table) DomainSize() uint64 { return uint64(len(t.values)) }

// Equal implements table.Table, up to a small floating-point tolerance.
func (t *Table) Equal(other table.Table) bool {
	o, ok := other.(*Table)
	if !ok {
		return false
	}
	if !t.Variables().Difference(o.Variables()).Empty() || !o.Variables().Difference(t.Variables()).Empty() {
		return false
	}
	// re-index o's values into t's variable order before comparing
	aligned := o.alignedTo(t.vars)
	if len(aligned) != len(t.values) {
		return false
	}
	const tol = 1e-9
	for i := range t.values {
		if math.Abs(t.values[i]-aligned[i]) > tol {
			return false
		}
	}
	return true
}

// Clone implements table.Table.
func (t *Table) Clone() table.Table {
	values := make([]float64, len(t.values))
	copy(values, t.values)
	vars := make([]table.Variable, len(t.vars))
	copy(vars, t.vars)
	return &Table{vars: vars, values: values}
}

// strides returns, for each variable in vars (in order), the stride used to
// index into a row-major table over that variable order.
func strides(vars []table.Variable) []uint64 {
	out := make([]uint64, len(vars))
	stride := uint64(1)
	for i := len(vars) - 1; i >= 0; i-- {
		out[i] = stride
		stride *= uint64(vars[i].DomainSize())
	}
	return out
}

// assignment decomposes a flat index into per-variable values, in vars order.
func assignment(index uint64, vars []table.Variable) []uint32 {
	out := make([]uint32, len(vars))
	for i := len(vars) - 1; i >= 0; i-- {
		size := uint64(vars[i].DomainSize())
		out[i] = uint32(index % size)
		index /= size
	}
	return out
}

// alignedTo re-expresses t's values in the variable order given by vars
// (which must be the same set, possibly reordered).
func (t *Table) alignedTo(vars []table.Variable) []float64 {
	if sameOrder(t.vars, vars) {
		return t.values
	}
	posInT := make(map[uint64]int, len(vars))
	for i, v := range t.vars {
		posInT[v.ID()] = i
	}
	out := make([]float64, len(t.values))
	for idx := range out {
		asg := assignment(uint64(idx), vars)
		tAsg := make([]uint32, len(t.vars))
		for i, v := range vars {
			tAsg[posInT[v.ID()]] = asg[i]
		}
		out[idx] = t.values[flatten(tAsg, t.vars)]
	}
	return out
}

func flatten(asg []uint32, vars []table.Variable) uint64 {
	st := strides(vars)
	var idx uint64
	for i, a := range asg {
		idx += uint64(a) * st[i]
	}
	return idx
}

func sameOrder(a, b []table.Variable) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID() != b[i].ID() {
			return false
		}
	}
	return true
}

// Combine multiplies two tables pointwise over their union of variables.
func Combine(a, b table.Table) (table.Table, error) {
	ta, ok := a.(*Table)
	if !ok {
		return nil, fmt.Errorf("testtable: Combine: %T is not a *Table", a)
	}
	tb, ok := b.(*Table)
	if !ok {
		return nil, fmt.Errorf("testtable: Combine: %T is not a *Table", b)
	}
	union := ta.Variables().Union(tb.Variables()).Sorted()
	size := table.NewVarSet(union...).DomainSize()
	values := make([]float64, size)
	for idx := range values {
		asg := assignment(uint64(idx), union)
		byID := make(map[uint64]uint32, len(union))
		for i, v := range union {
			byID[v.ID()] = asg[i]
		}
		values[idx] = ta.valueFor(byID) * tb.valueFor(byID)
	}
	return New(union, values), nil
}

// valueFor reads the value for the (possibly wider) assignment byID,
// projecting it down onto t's own variables.
func (t *Table) valueFor(byID map[uint64]uint32) float64 {
	asg := make([]uint32, len(t.vars))
	for i, v := range t.vars {
		asg[i] = byID[v.ID()]
	}
	return t.values[flatten(asg, t.vars)]
}

// Project sums t out over the variables in del, returning a table over
// Variables() \ del.
func Project(t table.Table, del table.VarSet) (table.Table, error) {
	tt, ok := t.(*Table)
	if !ok {
		return nil, fmt.Errorf("testtable: Project: %T is not a *Table", t)
	}
	keep := tt.Variables().Difference(del).Sorted()
	if len(keep) == len(tt.vars) {
		return tt.Clone(), nil
	}
	size := table.NewVarSet(keep...).DomainSize()
	values := make([]float64, size)
	for idx := range tt.values {
		asg := assignment(uint64(idx), tt.vars)
		byID := make(map[uint64]uint32, len(tt.vars))
		for i, v := range tt.vars {
			byID[v.ID()] = asg[i]
		}
		keepAsg := make([]uint32, len(keep))
		for i, v := range keep {
			keepAsg[i] = byID[v.ID()]
		}
		values[flatten(keepAsg, keep)] += tt.values[idx]
	}
	return New(keep, values), nil
}
