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
	"reflect"
	"runtime"

	"github.com/infersched/schedcore/internal/errwrap"
	"github.com/infersched/schedcore/internal/idgen"
	"github.com/infersched/schedcore/table"
)

// Kind is the closed set of operator variants. A closed sum type is used
// instead of an open interface hierarchy so that is_same_operator is a plain
// value comparison rather than a type switch scattered across packages.
type Kind int

const (
	// KindCombine multiplies two tables into one over their union of
	// variables.
	KindCombine Kind = iota
	// KindProject sums a table down over a set of variables to remove.
	KindProject
	// KindDelete reclaims a table's memory; it consumes its argument.
	KindDelete
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case KindCombine:
		return "Combine"
	case KindProject:
		return "Project"
	case KindDelete:
		return "Delete"
	default:
		return "Unknown"
	}
}

// Operator is a single symbolic operation over table handles: Combine,
// Project or Delete. Functor identity is carried as a function pointer
// (compared via reflect.ValueOf(...).Pointer(), the idiomatic Go stand-in
// for C++ functor-object identity) alongside the Kind tag.
type Operator struct {
	kind Kind

	args    []*Handle // order significant for equality
	delVars table.VarSet
	result  *Handle

	combineFn table.CombineFunc
	projectFn table.ProjectFunc

	executed bool
}

// NewCombine returns an operator that combines a and b via fn. The result
// handle is abstract until Execute runs.
func NewCombine(a, b *Handle, fn table.CombineFunc) *Operator {
	return &Operator{
		kind:      KindCombine,
		args:      []*Handle{a, b},
		combineFn: fn,
		result:    NewAbstract(a.Variables().Union(b.Variables())),
	}
}

// NewProject returns an operator that projects arg down by delVars via fn.
func NewProject(arg *Handle, delVars table.VarSet, fn table.ProjectFunc) *Operator {
	return &Operator{
		kind:      KindProject,
		args:      []*Handle{arg},
		delVars:   delVars,
		projectFn: fn,
		result:    NewAbstract(arg.Variables().Difference(delVars)),
	}
}

// NewDelete returns an operator that reclaims arg's memory. It has no
// result; Results() returns nil for a Delete op.
func NewDelete(arg *Handle) *Operator {
	return &Operator{
		kind: KindDelete,
		args: []*Handle{arg},
	}
}

// Kind returns the operator's variant.
func (op *Operator) Kind() Kind { return op.kind }

// Args returns the operator's argument handles, in order.
func (op *Operator) Args() []*Handle { return op.args }

// DelVars returns the variables a Project operator removes. Empty for other
// variants.
func (op *Operator) DelVars() table.VarSet { return op.delVars }

// Results returns the operator's result handles, in order. Delete has none.
func (op *Operator) Results() []*Handle {
	if op.result == nil {
		return nil
	}
	return []*Handle{op.result}
}

// ImpliesDeletion reports whether executing this operator reclaims its
// arguments' memory.
func (op *Operator) ImpliesDeletion() bool { return op.kind == KindDelete }

// IsExecuted reports whether Execute has already run.
func (op *Operator) IsExecuted() bool { return op.executed }

// Execute invokes the functor on concrete inputs and materializes the
// result. It fails with ErrNotReady if any argument is still abstract, and
// with ErrAlreadyExecuted if called twice. Functor errors (FunctorError in
// the error taxonomy) propagate unchanged.
func (op *Operator) Execute() error {
	if op.executed {
		return errwrap.Wrapf(ErrAlreadyExecuted, "operator %s", op.kind)
	}
	for i, a := range op.args {
		if a.IsAbstract() {
			return errwrap.Wrapf(ErrNotReady, "operator %s: argument %d (handle %d) is abstract", op.kind, i, a.ID())
		}
	}
	switch op.kind {
	case KindCombine:
		out, err := op.combineFn(op.args[0].Table(), op.args[1].Table())
		if err != nil {
			return err // FunctorError: propagate unchanged
		}
		if err := op.result.Materialize(out); err != nil {
			return err
		}
	case KindProject:
		out, err := op.projectFn(op.args[0].Table(), op.delVars)
		if err != nil {
			return err
		}
		if err := op.result.Materialize(out); err != nil {
			return err
		}
	case KindDelete:
		// no result to materialize; memory reclamation is the
		// caller's/executor's business once this op is marked
		// executed.
	}
	op.executed = true
	return nil
}

// UpdateArgs rebinds this operator's argument handles. Only valid before
// Execute, and only if newArgs have the same variable sets, in the same
// positions, as the current args.
func (op *Operator) UpdateArgs(newArgs []*Handle) error {
	if op.executed {
		return errwrap.Wrapf(ErrAlreadyExecuted, "operator %s: cannot update args after execution", op.kind)
	}
	if len(newArgs) != len(op.args) {
		return errwrap.Wrapf(ErrIncompatibleVariables, "operator %s: expected %d args, got %d", op.kind, len(op.args), len(newArgs))
	}
	for i, a := range newArgs {
		if !a.HasSameVariables(op.args[i]) {
			return errwrap.Wrapf(ErrIncompatibleVariables, "operator %s: argument %d variable mismatch", op.kind, i)
		}
	}
	op.args = newArgs
	return nil
}

// IsSameOperator reports whether other has the same variant, the same
// functor identity, and the same argument positions (ids are compared
// externally by the caller, e.g. Schedule equality's bijection walk).
func (op *Operator) IsSameOperator(other *Operator) bool {
	if op.kind != other.kind {
		return false
	}
	if len(op.args) != len(other.args) {
		return false
	}
	switch op.kind {
	case KindCombine:
		if funcPointer(op.combineFn) != funcPointer(other.combineFn) {
			return false
		}
	case KindProject:
		if funcPointer(op.projectFn) != funcPointer(other.projectFn) {
			return false
		}
		if !op.delVars.Difference(other.delVars).Empty() || !other.delVars.Difference(op.delVars).Empty() {
			return false
		}
	}
	return true
}

// Clone deep-clones this operator. Its result handles are new abstract
// handles with fresh ids; its args are left pointing at the same handles as
// the original (callers that need rebinding call UpdateArgs afterward, as
// Schedule.insertOperation does).
func (op *Operator) Clone() *Operator {
	clone := &Operator{
		kind:      op.kind,
		args:      append([]*Handle(nil), op.args...),
		delVars:   op.delVars,
		combineFn: op.combineFn,
		projectFn: op.projectFn,
	}
	if op.result != nil {
		clone.result = NewAbstract(op.result.Variables())
	}
	return clone
}

// String implements fmt.Stringer for log lines.
func (op *Operator) String() string {
	ids := make([]uint64, len(op.args))
	for i, a := range op.args {
		ids[i] = a.ID()
	}
	return fmt.Sprintf("%s(args=%v)", op.kind, ids)
}

// funcPointer extracts a stable identity for a function value, the idiomatic
// Go stand-in for comparing C++ functor objects by identity.
func funcPointer(fn interface{}) uintptr {
	if fn == nil {
		return 0
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return runtime.FuncForPC(v.Pointer()).Entry()
}
