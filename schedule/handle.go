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

package schedule

import (
	"fmt"

	"github.com/infersched/schedcore/internal/errwrap"
	"github.com/infersched/schedcore/internal/idgen"
	"github.com/infersched/schedcore/table"
)

// Handle is a symbolic reference to a (possibly not yet computed) table. It
// is either concrete (wraps a real table.Table) or abstract (variables
// known, content pending, filled in later by Materialize). Handles compare
// by id, never by content or pointer identity of the underlying table.
type Handle struct {
	id         uint64
	variables  table.VarSet
	tbl        table.Table // nil while abstract
	abstract   bool
	persistent bool
}

// FromTable returns a concrete handle referencing t. Ownership of t is not
// transferred unless persistent is true.
func FromTable(t table.Table, persistent bool) *Handle {
	return &Handle{
		id:         idgen.Next(),
		variables:  t.Variables(),
		tbl:        t,
		abstract:   false,
		persistent: persistent,
	}
}

// NewAbstract returns an abstract handle over the given variables. Content
// is pending until Materialize is called.
func NewAbstract(vars table.VarSet) *Handle {
	return &Handle{
		id:        idgen.Next(),
		variables: vars,
		abstract:  true,
	}
}

// ID returns this handle's process-unique id.
func (h *Handle) ID() uint64 { return h.id }

// Variables returns the variable set this handle represents.
func (h *Handle) Variables() table.VarSet { return h.variables }

// IsAbstract reports whether content is still pending.
func (h *Handle) IsAbstract() bool { return h.abstract }

// Persistent reports whether this handle survives the owning Schedule's
// destruction.
func (h *Handle) Persistent() bool { return h.persistent }

// SetPersistent updates the persistent flag. Used by Schedule.insertOperation
// to propagate persistent_results onto freshly produced result handles.
func (h *Handle) SetPersistent(p bool) { h.persistent = p }

// Table returns the underlying table. It is nil while the handle is abstract.
func (h *Handle) Table() table.Table { return h.tbl }

// DomainSize returns the product of the domain sizes of Variables().
func (h *Handle) DomainSize() uint64 { return h.variables.DomainSize() }

// Materialize transitions an abstract handle to concrete. It fails with
// ErrAlreadyConcrete if called twice.
func (h *Handle) Materialize(t table.Table) error {
	if !h.abstract {
		return errwrap.Wrapf(ErrAlreadyConcrete, "handle %d", h.id)
	}
	h.tbl = t
	h.abstract = false
	return nil
}

// HasSameVariables reports set equality of variables with other.
func (h *Handle) HasSameVariables(other *Handle) bool {
	diffAB := h.variables.Difference(other.variables)
	diffBA := other.variables.Difference(h.variables)
	return diffAB.Empty() && diffBA.Empty()
}

// HasSameContent reports content-level equality, used only by Schedule
// equality; it never drives planning decisions.
func (h *Handle) HasSameContent(other *Handle) bool {
	if h.abstract || other.abstract {
		return h == other
	}
	return h.tbl.Equal(other.tbl)
}

// Clone produces a new handle with a new id. The clone is abstract if the
// original was abstract; otherwise it shares the underlying table by
// reference (reference semantics, not a deep table copy).
func (h *Handle) Clone() *Handle {
	return &Handle{
		id:         idgen.Next(),
		variables:  h.variables,
		tbl:        h.tbl,
		abstract:   h.abstract,
		persistent: h.persistent,
	}
}

// String implements fmt.Stringer for log lines.
func (h *Handle) String() string {
	state := "concrete"
	if h.abstract {
		state = "abstract"
	}
	return fmt.Sprintf("handle(%d,%s,vars=%d)", h.id, state, len(h.variables))
}
