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

// Package table defines the external collaborators the scheduler plans
// against: Variable, Table and the functors that combine or project them.
// Nothing in this package knows how to multiply or sum numbers; that is the
// caller's business. See table/testtable for a reference implementation
// used by the rest of this module's tests.
package table

// Variable is a named, finite, ordered discrete domain. Identity is by id,
// never by name: two variables with the same name but different ids are
// distinct, and callers must not rely on name-based lookups for planning.
type Variable interface {
	// ID returns this variable's stable identity.
	ID() uint64
	// DomainSize returns the number of values this variable can take.
	DomainSize() uint32
	// Name is for logging and diagnostics only.
	Name() string
}

// Table is a factor over a set of Variables, storing one numeric value per
// joint assignment. The scheduler never inspects the values themselves; it
// only reads Variables/DomainSize and, for equality testing, calls Equal.
type Table interface {
	// Variables returns the set of variables this table is defined over.
	Variables() VarSet
	// DomainSize returns the product of the domain sizes of Variables().
	DomainSize() uint64
	// Equal reports content-level equality. Used only by Schedule
	// equality (spec: has_same_content); it never drives planning.
	Equal(other Table) bool
	// Clone returns an independent copy of this table.
	Clone() Table
}

// CombineFunc combines two tables into one whose variable set is the union
// of the inputs'. It must be deterministic and must not mutate its inputs.
type CombineFunc func(a, b Table) (Table, error)

// ProjectFunc projects a table down to its variables minus del. It must be
// deterministic and must not mutate its input.
type ProjectFunc func(t Table, del VarSet) (Table, error)
