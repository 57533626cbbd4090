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

func TestInsertScheduleMultiDimRejectsAbstractAndDuplicate(t *testing.T) {
	s := schedule.New()
	a := testtable.NewVar(1, "A", 2)
	abstract := schedule.NewAbstract(table.NewVarSet(a))
	if err := s.InsertScheduleMultiDim(abstract); !errors.Is(err, schedule.ErrAbstractSource) {
		t.Fatalf("abstract source error = %v, want ErrAbstractSource", err)
	}

	h := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	if err := s.InsertScheduleMultiDim(h); err != nil {
		t.Fatalf("InsertScheduleMultiDim: %v", err)
	}
	if err := s.InsertScheduleMultiDim(h); !errors.Is(err, schedule.ErrDuplicateHandle) {
		t.Fatalf("duplicate insert error = %v, want ErrDuplicateHandle", err)
	}
}

func TestInsertOperationRejectsUnknownHandle(t *testing.T) {
	s := schedule.New()
	a := testtable.NewVar(1, "A", 2)
	h := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	// h was never registered into s.
	op := schedule.NewDelete(h)
	if _, err := s.InsertOperation(op, false); !errors.Is(err, schedule.ErrUnknownHandle) {
		t.Fatalf("InsertOperation with unregistered arg error = %v, want ErrUnknownHandle", err)
	}
}

func TestInsertOperationWiresProducerConsumerEdge(t *testing.T) {
	s := schedule.New()
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	ha := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	hb := newConcreteHandle([]table.Variable{b}, []float64{3, 4})
	_ = s.InsertScheduleMultiDim(ha)
	_ = s.InsertScheduleMultiDim(hb)

	combineNode, err := s.InsertOperation(schedule.NewCombine(ha, hb, testtable.Combine), false)
	if err != nil {
		t.Fatalf("InsertOperation combine: %v", err)
	}
	available := s.AvailableOperations()
	if !available[combineNode] {
		t.Fatalf("combine op should be immediately available, got %v", available)
	}

	combineOp, _ := s.Operation(combineNode)
	result := combineOp.Results()[0]
	projectNode, err := s.InsertOperation(schedule.NewProject(result, table.NewVarSet(a), testtable.Project), false)
	if err != nil {
		t.Fatalf("InsertOperation project: %v", err)
	}
	available = s.AvailableOperations()
	if available[projectNode] {
		t.Fatal("project op depending on an unexecuted combine should not be available yet")
	}

	if err := combineOp.Execute(); err != nil {
		t.Fatalf("Execute combine: %v", err)
	}
	newlyAvailable, err := s.UpdateAfterExecution(combineNode, true)
	if err != nil {
		t.Fatalf("UpdateAfterExecution: %v", err)
	}
	found := false
	for _, n := range newlyAvailable {
		if n == projectNode {
			found = true
		}
	}
	if !found {
		t.Errorf("project node should become available after its only parent executes, got %v", newlyAvailable)
	}
}

// TestScenarioFiveDeletionClosesHandle mirrors the worked scenario where a
// handle already claimed by a (possibly unexecuted) DeleteOp can never be
// referenced by a later operation.
func TestScenarioFiveDeletionClosesHandle(t *testing.T) {
	s := schedule.New()
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	h1 := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	h2 := newConcreteHandle([]table.Variable{b}, []float64{3, 4})
	_ = s.InsertScheduleMultiDim(h1)
	_ = s.InsertScheduleMultiDim(h2)

	if _, err := s.InsertOperation(schedule.NewCombine(h1, h2, testtable.Combine), false); err != nil {
		t.Fatalf("InsertOperation combine: %v", err)
	}
	if _, err := s.InsertOperation(schedule.NewDelete(h1), false); err != nil {
		t.Fatalf("InsertOperation delete: %v", err)
	}

	_, err := s.InsertOperation(schedule.NewProject(h1, table.NewVarSet(a), testtable.Project), false)
	if !errors.Is(err, schedule.ErrOperationNotAllowed) {
		t.Fatalf("second op on a handle already claimed by an (unexecuted) delete: error = %v, want ErrOperationNotAllowed", err)
	}
}

func TestClearKeepsOnlyEmplacedAndPersistentHandles(t *testing.T) {
	s := schedule.New()
	a := testtable.NewVar(1, "A", 2)
	b := testtable.NewVar(2, "B", 2)
	transient := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	persistent := schedule.FromTable(testtable.New([]table.Variable{b}, []float64{3, 4}), true)
	emplaced := newConcreteHandle([]table.Variable{a}, []float64{5, 6})

	_ = s.InsertScheduleMultiDim(transient)
	_ = s.InsertScheduleMultiDim(persistent)
	_ = s.EmplaceScheduleMultiDim(emplaced)

	s.Clear()

	if _, ok := s.Operation(0); ok {
		t.Fatal("Clear should drop all operators")
	}
	available := s.AvailableOperations()
	if len(available) != 0 {
		t.Fatalf("Clear should leave no pending operations, got %v", available)
	}
	// A kept handle is still registered, so registering it again fails;
	// a dropped one can be registered afresh.
	if err := s.InsertScheduleMultiDim(persistent); !errors.Is(err, schedule.ErrDuplicateHandle) {
		t.Errorf("persistent handle after Clear: error = %v, want ErrDuplicateHandle", err)
	}
	if err := s.InsertScheduleMultiDim(emplaced); !errors.Is(err, schedule.ErrDuplicateHandle) {
		t.Errorf("emplaced handle after Clear: error = %v, want ErrDuplicateHandle", err)
	}
	if err := s.InsertScheduleMultiDim(transient); err != nil {
		t.Errorf("transient handle after Clear should have been dropped, got %v", err)
	}
}

func buildChain(t *testing.T) *schedule.Schedule {
	t.Helper()
	s := schedule.New()
	a := testtable.NewVar(11, "A", 2)
	b := testtable.NewVar(12, "B", 2)
	c := testtable.NewVar(13, "C", 2)
	ha := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	hb := newConcreteHandle([]table.Variable{b}, []float64{3, 4})
	hc := newConcreteHandle([]table.Variable{c}, []float64{5, 6})
	_ = s.InsertScheduleMultiDim(ha)
	_ = s.InsertScheduleMultiDim(hb)
	_ = s.InsertScheduleMultiDim(hc)

	n1, err := s.InsertOperation(schedule.NewCombine(ha, hb, testtable.Combine), false)
	if err != nil {
		t.Fatalf("insert combine 1: %v", err)
	}
	op1, _ := s.Operation(n1)
	if err := op1.Execute(); err != nil {
		t.Fatalf("execute combine 1: %v", err)
	}
	if _, err := s.UpdateAfterExecution(n1, true); err != nil {
		t.Fatalf("UpdateAfterExecution 1: %v", err)
	}

	n2, err := s.InsertOperation(schedule.NewCombine(op1.Results()[0], hc, testtable.Combine), false)
	if err != nil {
		t.Fatalf("insert combine 2: %v", err)
	}
	op2, _ := s.Operation(n2)
	if err := op2.Execute(); err != nil {
		t.Fatalf("execute combine 2: %v", err)
	}
	if _, err := s.UpdateAfterExecution(n2, true); err != nil {
		t.Fatalf("UpdateAfterExecution 2: %v", err)
	}
	return s
}

func TestCopyEqualsOriginal(t *testing.T) {
	s := buildChain(t)
	clone := s.Copy()
	if !s.Equal(clone) {
		t.Fatal("s.Copy() should be Equal to s")
	}
}

func TestEqualDetectsDifferentStructure(t *testing.T) {
	s1 := buildChain(t)
	s2 := schedule.New()
	a := testtable.NewVar(21, "A", 2)
	h := newConcreteHandle([]table.Variable{a}, []float64{1, 2})
	_ = s2.InsertScheduleMultiDim(h)
	if s1.Equal(s2) {
		t.Fatal("schedules with different structure should not be Equal")
	}
}

func TestEqualIsReflexive(t *testing.T) {
	s := buildChain(t)
	if !s.Equal(s) {
		t.Fatal("a schedule should always be Equal to itself")
	}
}
