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

package table_test

import (
	"reflect"
	"testing"

	"github.com/infersched/schedcore/table"
	"github.com/infersched/schedcore/table/testtable"
)

func vars(n int) []table.Variable {
	out := make([]table.Variable, n)
	for i := range out {
		out[i] = testtable.NewVar(uint64(i+1), string(rune('A'+i)), 4)
	}
	return out
}

func TestVarSetUnionDifferenceIntersect(t *testing.T) {
	v := vars(4) // A B C D
	ab := table.NewVarSet(v[0], v[1])
	bc := table.NewVarSet(v[1], v[2])

	union := ab.Union(bc)
	if len(union) != 3 {
		t.Fatalf("union: got %d members, want 3", len(union))
	}
	for _, id := range []uint64{1, 2, 3} {
		if !union.ContainsID(id) {
			t.Errorf("union missing id %d", id)
		}
	}

	diff := ab.Difference(bc)
	if len(diff) != 1 || !diff.ContainsID(1) {
		t.Errorf("difference: got %v, want {1}", diff)
	}

	inter := ab.Intersect(bc)
	if len(inter) != 1 || !inter.ContainsID(2) {
		t.Errorf("intersect: got %v, want {2}", inter)
	}
}

func TestVarSetDomainSize(t *testing.T) {
	v := vars(3)
	s := table.NewVarSet(v...)
	if got, want := s.DomainSize(), uint64(4*4*4); got != want {
		t.Errorf("DomainSize() = %d, want %d", got, want)
	}
	if got := table.NewVarSet().DomainSize(); got != 1 {
		t.Errorf("empty set DomainSize() = %d, want 1", got)
	}
}

func TestVarSetSorted(t *testing.T) {
	v := vars(3)
	s := table.NewVarSet(v[2], v[0], v[1])
	sorted := s.Sorted()
	ids := make([]uint64, len(sorted))
	for i, x := range sorted {
		ids[i] = x.ID()
	}
	want := []uint64{1, 2, 3}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("Sorted() ids = %v, want %v", ids, want)
	}
}

func TestVarSetEmpty(t *testing.T) {
	if !table.NewVarSet().Empty() {
		t.Error("empty VarSet should report Empty() == true")
	}
	v := vars(1)
	if table.NewVarSet(v[0]).Empty() {
		t.Error("nonempty VarSet should report Empty() == false")
	}
}
