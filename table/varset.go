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

package table

import "sort"

// VarSet is an unordered set of Variables, keyed by id.
type VarSet map[uint64]Variable

// NewVarSet builds a VarSet from a list of variables.
func NewVarSet(vs ...Variable) VarSet {
	out := make(VarSet, len(vs))
	for _, v := range vs {
		out[v.ID()] = v
	}
	return out
}

// Contains reports whether v is in the set.
func (s VarSet) Contains(v Variable) bool {
	_, ok := s[v.ID()]
	return ok
}

// ContainsID reports whether a variable with this id is in the set.
func (s VarSet) ContainsID(id uint64) bool {
	_, ok := s[id]
	return ok
}

// Union returns a new set containing every variable in s or other.
func (s VarSet) Union(other VarSet) VarSet {
	out := make(VarSet, len(s)+len(other))
	for id, v := range s {
		out[id] = v
	}
	for id, v := range other {
		out[id] = v
	}
	return out
}

// Difference returns a new set containing every variable in s that is not
// in other.
func (s VarSet) Difference(other VarSet) VarSet {
	out := make(VarSet, len(s))
	for id, v := range s {
		if _, ok := other[id]; !ok {
			out[id] = v
		}
	}
	return out
}

// Intersect returns a new set containing every variable in both s and other.
func (s VarSet) Intersect(other VarSet) VarSet {
	out := make(VarSet)
	small, big := s, other
	if len(big) < len(small) {
		small, big = big, small
	}
	for id, v := range small {
		if _, ok := big[id]; ok {
			out[id] = v
		}
	}
	return out
}

// Empty reports whether the set has no members.
func (s VarSet) Empty() bool {
	return len(s) == 0
}

// DomainSize returns the product of the domain sizes of every variable in
// the set. An empty set has domain size 1 (the scalar case).
func (s VarSet) DomainSize() uint64 {
	var size uint64 = 1
	for _, v := range s {
		size *= uint64(v.DomainSize())
	}
	return size
}

// Sorted returns the set's members ordered by ascending variable id, giving
// the deterministic tie-break the planners require.
func (s VarSet) Sorted() []Variable {
	out := make([]Variable, 0, len(s))
	for _, v := range s {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() < out[j].ID() })
	return out
}
