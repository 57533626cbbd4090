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

import "github.com/infersched/schedcore/schedule"

// deletionWeight is the fixed per-deletion constant the cost model adds for
// every Delete op (spec.md §9's Open Question, resolved against
// original_source/.../schedule.cpp: a Combine costs its result table's size,
// a Project its input table's size, plus a small constant per deletion).
const deletionWeight = 1

// resultCost returns a single operator's contribution to nb_operations. A
// Combine writes one value per cell of its result, so its cost is the
// result's domain size. A Project reads every cell of its input once, so
// its cost is the *input's* domain size, not its (smaller) result. Delete
// contributes the fixed deletionWeight, and is only ever emitted by a
// planner (combineproject.go's CombineAndProjector.Operations) for a
// handle it owns and has finished consuming, never for a caller-supplied
// one. This is the cost model worked out in SPEC_FULL.md from the original
// implementation (spec.md §9's Open Question); cost_test.go reproduces
// Scenario 4's nb_operations = 421 against it.
func resultCost(op *schedule.Operator) uint64 {
	switch op.Kind() {
	case schedule.KindDelete:
		return deletionWeight
	case schedule.KindProject:
		return op.Args()[0].DomainSize()
	default: // KindCombine
		results := op.Results()
		if len(results) == 0 {
			return 0
		}
		return results[0].DomainSize()
	}
}
