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

// Package schedule implements the DAG of operations over table handles: the
// Handle/Operator/Schedule trio from spec.md §3-4.3. It is the symbolic
// planning layer; nothing here does numeric work, that is left to the
// table.CombineFunc/ProjectFunc functors supplied by callers.
package schedule

import (
	"log"

	"github.com/google/uuid"

	"github.com/infersched/schedcore/internal/errwrap"
	"github.com/infersched/schedcore/internal/idgen"
)

// Schedule is a DAG of operations over table handles, plus the bookkeeping
// needed to insert new operations safely, drive execution, and compare two
// plans for equality. It is not internally synchronized: concurrent mutation
// of one Schedule from multiple goroutines is undefined, matching spec.md §5.
type Schedule struct {
	uuid string
	dag  *dag

	nodeToOp map[nodeID]*Operator // retained even after a node executes

	handles        map[uint64]*Handle // handle_to_id: canonical handle by id
	handleProducer map[uint64]nodeID  // handle id -> producing node (absent => source)
	handleUsers    map[uint64]map[nodeID]bool
	handleDeleter  map[uint64]nodeID
	emplaced       map[uint64]bool

	version uint64
}

// New returns an empty Schedule.
func New() *Schedule {
	return &Schedule{
		uuid:           uuid.NewString(),
		dag:            newDAG(),
		nodeToOp:       make(map[nodeID]*Operator),
		handles:        make(map[uint64]*Handle),
		handleProducer: make(map[uint64]nodeID),
		handleUsers:    make(map[uint64]map[nodeID]bool),
		handleDeleter:  make(map[uint64]nodeID),
		emplaced:       make(map[uint64]bool),
	}
}

// UUID returns a process-unique token for this Schedule instance, used only
// for log correlation and metrics labels; it plays no role in planning or
// equality.
func (s *Schedule) UUID() string { return s.uuid }

// Version returns the monotonically increasing counter bumped on every
// successful structural change.
func (s *Schedule) Version() uint64 { return s.version }

// InsertScheduleMultiDim registers h as a source handle (one whose content
// comes from outside the schedule). It fails with ErrDuplicateHandle if h's
// id is already registered, and ErrAbstractSource if h is abstract.
func (s *Schedule) InsertScheduleMultiDim(h *Handle) error {
	if _, ok := s.handles[h.ID()]; ok {
		return errwrap.Wrapf(ErrDuplicateHandle, "handle %d", h.ID())
	}
	if h.IsAbstract() {
		return errwrap.Wrapf(ErrAbstractSource, "handle %d", h.ID())
	}
	s.handles[h.ID()] = h
	s.handleUsers[h.ID()] = make(map[nodeID]bool)
	return nil
}

// EmplaceScheduleMultiDim registers h as a source handle whose lifetime is
// not owned by the schedule: Copy() copies it by reference and Clear() never
// destroys it.
func (s *Schedule) EmplaceScheduleMultiDim(h *Handle) error {
	if err := s.InsertScheduleMultiDim(h); err != nil {
		return err
	}
	s.emplaced[h.ID()] = true
	return nil
}

// Operation returns the operator registered at node, if any.
func (s *Schedule) Operation(node nodeID) (*Operator, bool) {
	op, ok := s.nodeToOp[node]
	return op, ok
}

// AvailableOperations returns the set of node ids whose operator has not
// executed and whose parents have all executed. No ordering is promised.
func (s *Schedule) AvailableOperations() map[nodeID]bool {
	return s.dag.availableNodes()
}

// InsertOperation runs the insertion protocol of spec.md §4.3.1: it
// validates op's arguments against the current schedule state, deep-clones
// op and rebinds it onto this schedule's canonical handles, registers it,
// wires DAG edges, and (if op arrived pre-executed) immediately retires it.
// On any validation failure the schedule is left structurally unchanged.
func (s *Schedule) InsertOperation(op *Operator, persistentResults bool) (nodeID, error) {
	canonicalArgs := make([]*Handle, len(op.Args()))
	for i, a := range op.Args() {
		canon, ok := s.handles[a.ID()]
		if !ok {
			return 0, errwrap.Wrapf(ErrUnknownHandle, "operation %s: argument %d (handle %d)", op.Kind(), i, a.ID())
		}
		canonicalArgs[i] = canon
	}

	if err := s.checkInsertable(op, canonicalArgs); err != nil {
		return 0, err
	}

	clone := op.Clone()
	if err := clone.UpdateArgs(canonicalArgs); err != nil {
		return 0, err
	}
	for _, r := range clone.Results() {
		r.SetPersistent(persistentResults)
	}
	// the clone that arrived already executed keeps that status and its
	// materialized results; UpdateArgs above only rebinds argument
	// pointers, it never re-runs the functor.
	clone.executed = op.executed
	if op.executed {
		for i, r := range clone.Results() {
			if i < len(op.Results()) {
				if t := op.Results()[i].Table(); t != nil {
					_ = r.Materialize(t)
				}
			}
		}
	}

	node := nextNodeID()
	s.nodeToOp[node] = clone
	s.dag.addNode(node)

	for _, a := range canonicalArgs {
		s.handleUsers[a.ID()][node] = true
		if clone.ImpliesDeletion() {
			s.handleDeleter[a.ID()] = node
		}
	}
	for _, r := range clone.Results() {
		s.handles[r.ID()] = r
		s.handleUsers[r.ID()] = make(map[nodeID]bool)
		s.handleProducer[r.ID()] = node
	}

	s.wireEdges(node, clone, canonicalArgs)

	if clone.IsExecuted() {
		s.dag.removeNode(node) // step 5: post-execution shortcut
	}

	s.version++
	log.Printf("schedule[%s]: inserted %s at node %d", s.uuid, clone.Kind(), node)
	return node, nil
}

// checkInsertable implements the validity checks of spec.md §4.3.1 step 1.
// Once any (executed or not) operator is registered as the deleter of a
// handle, no further operation may reference that handle at all: a deleter
// claims exclusive, terminal ownership of its argument's lifetime.
func (s *Schedule) checkInsertable(op *Operator, canonicalArgs []*Handle) error {
	for i, a := range canonicalArgs {
		if _, ok := s.handleDeleter[a.ID()]; ok {
			return errwrap.Wrapf(ErrOperationNotAllowed, "operation %s: argument %d (handle %d) already marked for deletion", op.Kind(), i, a.ID())
		}
	}
	if op.ImpliesDeletion() && op.IsExecuted() {
		for _, a := range canonicalArgs {
			for userNode := range s.handleUsers[a.ID()] {
				userOp := s.nodeToOp[userNode]
				if userOp != nil && !userOp.IsExecuted() {
					return errwrap.Wrapf(ErrOperationNotAllowed, "operation %s: handle %d still has an unexecuted reader", op.Kind(), a.ID())
				}
			}
		}
	}
	return nil
}

// wireEdges adds DAG edges per spec.md invariant §3.4: producer->consumer
// for each argument that was itself a prior result, and reader->deleter for
// every other (non-self) reader of an argument this op deletes.
func (s *Schedule) wireEdges(node nodeID, op *Operator, canonicalArgs []*Handle) {
	for _, a := range canonicalArgs {
		if producer, ok := s.handleProducer[a.ID()]; ok {
			s.dag.addEdge(producer, node)
		}
		if op.ImpliesDeletion() {
			for userNode := range s.handleUsers[a.ID()] {
				if userNode != node {
					s.dag.addEdge(userNode, node)
				}
			}
		}
	}
}

// UpdateAfterExecution must be called exactly once, serially, after the
// caller executes the operator at node. When check is true it verifies the
// preconditions of spec.md §4.3.2 (node present, no unexecuted parents, the
// operator reports executed). It returns nodes that became newly available
// as a result (those whose only remaining parent was node).
func (s *Schedule) UpdateAfterExecution(node nodeID, check bool) ([]nodeID, error) {
	if check {
		if !s.dag.hasNode(node) {
			return nil, errwrap.Wrapf(ErrUnknownHandle, "node %d not present in dag", node)
		}
		if s.dag.inDegree(node) != 0 {
			return nil, errwrap.Wrapf(ErrOperationNotAllowed, "node %d still has unexecuted parents", node)
		}
		op, ok := s.nodeToOp[node]
		if !ok || !op.IsExecuted() {
			return nil, errwrap.Wrapf(ErrNotReady, "node %d operator not executed", node)
		}
	}

	var newlyAvailable []nodeID
	for _, child := range s.dag.childrenOf(node) {
		if s.dag.inDegree(child) == 1 { // node is its only remaining parent
			newlyAvailable = append(newlyAvailable, child)
		}
	}
	s.dag.removeNode(node)
	s.version++
	log.Printf("schedule[%s]: node %d executed, %d newly available", s.uuid, node, len(newlyAvailable))
	return newlyAvailable, nil
}

// Clear tears down owned operators and owned source handles, and resets all
// bookkeeping. Handles marked persistent or emplaced are left alone.
func (s *Schedule) Clear() {
	s.dag = newDAG()
	s.nodeToOp = make(map[nodeID]*Operator)
	kept := make(map[uint64]*Handle)
	keptEmplaced := make(map[uint64]bool)
	for id, h := range s.handles {
		if s.emplaced[id] || h.Persistent() {
			kept[id] = h
			if s.emplaced[id] {
				keptEmplaced[id] = true
			}
		}
	}
	s.handles = kept
	s.emplaced = keptEmplaced
	s.handleProducer = make(map[uint64]nodeID)
	s.handleDeleter = make(map[uint64]nodeID)
	s.handleUsers = make(map[uint64]map[nodeID]bool)
	for id := range s.handles {
		s.handleUsers[id] = make(map[nodeID]bool)
	}
	s.version++
}

// sourceIDs returns the ids of handles with no producer (i.e. registered via
// InsertScheduleMultiDim/EmplaceScheduleMultiDim), sorted ascending. Since
// idgen hands out ids monotonically when handles are created, ascending order
// is the handles' creation order.
func (s *Schedule) sourceIDs() []uint64 {
	ids := make([]uint64, 0)
	for id := range s.handles {
		if _, ok := s.handleProducer[id]; !ok {
			ids = append(ids, id)
		}
	}
	return sortedUint64(ids)
}

// fullOrder returns every node this Schedule has ever registered, in an order
// where every node appears after its DAG parents: already-executed nodes
// first (in their own insertion order, since they were removed from the live
// dag), then the live dag's nodes in topological order.
func (s *Schedule) fullOrder() []nodeID {
	order := s.dag.topologicalOrder(func(ready map[nodeID]bool) nodeID { return minNode(ready) })
	executedIDs := make([]nodeID, 0)
	for n, op := range s.nodeToOp {
		if op.IsExecuted() && !s.dag.hasNode(n) {
			executedIDs = append(executedIDs, n)
		}
	}
	return append(sortedNodeIDs(executedIDs), order...)
}

// Copy rebuilds a new Schedule by walking this one in topological order,
// cloning source handles (duplicating underlying tables) and operators, and
// remapping all handles through a fresh mapping. An already-executed
// operator is copied as executed, with duplicates of its result tables. Emplaced source handles are
// copied by reference, not duplicated, per spec.md §4.3.5.
func (s *Schedule) Copy() *Schedule {
	out := New()
	remap := make(map[uint64]*Handle) // old handle id -> new handle

	for _, id := range s.sourceIDs() {
		h := s.handles[id]
		if s.emplaced[id] {
			remap[id] = h // by reference
			_ = out.EmplaceScheduleMultiDim(h)
			continue
		}
		newHandle := FromTable(h.Table().Clone(), h.Persistent())
		remap[id] = newHandle
		_ = out.InsertScheduleMultiDim(newHandle)
	}

	for _, n := range s.fullOrder() {
		op := s.nodeToOp[n]
		newArgs := make([]*Handle, len(op.Args()))
		for i, a := range op.Args() {
			newArgs[i] = remap[a.ID()]
		}
		var newOp *Operator
		switch op.Kind() {
		case KindCombine:
			newOp = NewCombine(newArgs[0], newArgs[1], op.combineFn)
		case KindProject:
			newOp = NewProject(newArgs[0], op.delVars, op.projectFn)
		case KindDelete:
			newOp = NewDelete(newArgs[0])
		}
		if op.IsExecuted() {
			// replay as pre-executed, with a duplicate of each result
			// table, so the copy keeps the original's executed status.
			newOp.executed = true
			for i, r := range newOp.Results() {
				if t := op.Results()[i].Table(); t != nil {
					_ = r.Materialize(t.Clone())
				}
			}
		}
		node, err := out.InsertOperation(newOp, op.Results() != nil && len(op.Results()) > 0 && op.Results()[0].Persistent())
		if err != nil {
			// Copy only ever replays operations that were already
			// valid in s, so this indicates a programming error.
			panic(errwrap.Wrapf(err, "Copy: replaying operation %s failed", op.Kind()))
		}
		newClonedOp, _ := out.Operation(node)
		for i, r := range op.Results() {
			remap[r.ID()] = newClonedOp.Results()[i]
		}
	}
	return out
}

// Equal implements the structural equality of spec.md §4.3.4: two schedules
// are equal if there is a bijection between their handles under which every
// source handle matches (same variables, same content) and every operation
// matches (same kind, same functor, same argument positions under the
// bijection, same executed status, same result variables and, if executed,
// same result content). Handle and node ids themselves are never compared
// directly, since two independently-built schedules never share an id space.
//
// The bijection is built incrementally while walking both schedules in their
// own deterministic order (ascending id for sources, topological for
// operations): this is sound whenever both schedules were produced by
// replaying the same sequence of calls (e.g. s and s.Copy()), which is the
// only case spec.md's round-trip laws require.
func (s *Schedule) Equal(other *Schedule) bool {
	if s == other {
		return true
	}
	if other == nil {
		return false
	}

	sSources := s.sourceIDs()
	oSources := other.sourceIDs()
	if len(sSources) != len(oSources) {
		return false
	}
	handleMap := make(map[uint64]uint64, len(s.handles)) // s handle id -> other handle id
	for i, id := range sSources {
		a := s.handles[id]
		b := other.handles[oSources[i]]
		if !a.HasSameVariables(b) || !a.HasSameContent(b) {
			return false
		}
		handleMap[id] = b.ID()
	}

	sOrder := s.fullOrder()
	oOrder := other.fullOrder()
	if len(sOrder) != len(oOrder) {
		return false
	}

	for i, n := range sOrder {
		op := s.nodeToOp[n]
		oop := other.nodeToOp[oOrder[i]]
		if op == nil || oop == nil {
			return false
		}
		if op.IsExecuted() != oop.IsExecuted() {
			return false
		}
		if !op.IsSameOperator(oop) {
			return false
		}
		for k, a := range op.Args() {
			mapped, ok := handleMap[a.ID()]
			if !ok || mapped != oop.Args()[k].ID() {
				return false
			}
		}
		rs, ors := op.Results(), oop.Results()
		if len(rs) != len(ors) {
			return false
		}
		for k := range rs {
			if !rs[k].HasSameVariables(ors[k]) {
				return false
			}
			if op.IsExecuted() && !rs[k].HasSameContent(ors[k]) {
				return false
			}
			handleMap[rs[k].ID()] = ors[k].ID()
		}
	}
	return true
}

func sortedUint64(in []uint64) []uint64 {
	out := append([]uint64(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

func sortedNodeIDs(in []nodeID) []nodeID { return sortedUint64(in) }

func minNode(ready map[nodeID]bool) nodeID {
	first := true
	var best nodeID
	for n := range ready {
		if first || n < best {
			best = n
			first = false
		}
	}
	return best
}

// nextNodeID hands out node ids. It shares the id space used by handles, per
// spec.md's design note recommending a single id generator.
func nextNodeID() nodeID { return idgen.Next() }
