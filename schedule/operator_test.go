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

package schedule_test

import (
	"errors"
	"testing"

	"github.com/infersched/schedcore/schedule"
	"github.com/infersched/schedcore/table"
	"github.com/infersched/schedcore/table/testtable"
)

func newConcreteHandle(vs []table.Variable, values []float64) *schedule.Handle {
	return schedule.FromTable(testtable.New(vs, values), false)
}

func TestOperatorCombineExecute(t *testing.T) {
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	ha := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	hb := newConcreteHandle([]table.Variable{b}, []float64{10, 20})

	op := schedule.NewCombine(ha, hb, testtable.Combine)
	if op.Kind() != schedule.KindCombine {
		t.Fatalf("Kind() = %v, want Combine", op.Kind())
	}
	if op.Results()[0].IsAbstract() != true {
		t.Fatal("result should start abstract")
	}
	if err := op.Execute(); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if op.Results()[0].IsAbstract() {
		t.Error("result should be concrete after Execute")
	}
	if err := op.Execute(); !errors.Is(err, schedule.ErrAlreadyExecuted) {
		t.Errorf("second Execute error = %v, want ErrAlreadyExecuted", err)
	}
}

func TestOperatorExecuteRequiresConcreteArgs(t *testing.T) {
	a := testtable.NewVar(1, "A", 2)
	abstractArg := schedule.NewAbstract(table.NewVarSet(a))
	op := schedule.NewProject(abstractArg, table.NewVarSet(a), testtable.Project)
	if err := op.Execute(); !errors.Is(err, schedule.ErrNotReady) {
		t.Errorf("Execute on abstract arg error = %v, want ErrNotReady", err)
	}
}

func TestOperatorUpdateArgsRejectsVariableMismatch(t *testing.T) {
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	c := testtable.NewVar(3, "C", 3)
	ha := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	hb := newConcreteHandle([]table.Variable{b}, []float64{1, 2})
	hc := newConcreteHandle([]table.Variable{c}, []float64{1, 2, 3})

	op := schedule.NewCombine(ha, hb, testtable.Combine)
	if err := op.UpdateArgs([]*schedule.Handle{ha, hc}); !errors.Is(err, schedule.ErrIncompatibleVariables) {
		t.Errorf("UpdateArgs mismatch error = %v, want ErrIncompatibleVariables", err)
	}

	hb2 := newConcreteHandle([]table.Variable{b}, []float64{3, 4})
	if err := op.UpdateArgs([]*schedule.Handle{ha, hb2}); err != nil {
		t.Errorf("UpdateArgs with matching variables: %v", err)
	}
}

func TestOperatorIsSameOperator(t *testing.T) {
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	ha := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	hb := newConcreteHandle([]table.Variable{b}, []float64{1, 2})

	op1 := schedule.NewCombine(ha, hb, testtable.Combine)
	op2 := schedule.NewCombine(ha, hb, testtable.Combine)
	if !op1.IsSameOperator(op2) {
		t.Error("two Combine ops with the same functor should be IsSameOperator")
	}

	proj := schedule.NewProject(ha, table.NewVarSet(a), testtable.Project)
	if op1.IsSameOperator(proj) {
		t.Error("a Combine and a Project should never be IsSameOperator")
	}
}

func TestOperatorCloneProducesFreshResult(t *testing.T) {
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	ha := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	hb := newConcreteHandle([]table.Variable{b}, []float64{1, 2})

	op := schedule.NewCombine(ha, hb, testtable.Combine)
	clone := op.Clone()
	if clone.Results()[0].ID() == op.Results()[0].ID() {
		t.Error("Clone() should give the result a fresh id")
	}
	if clone.IsExecuted() {
		t.Error("Clone() of an unexecuted op should be unexecuted")
	}
}
