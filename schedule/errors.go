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

import "errors"

// Sentinel error kinds. Every error this package raises itself wraps one of
// these via internal/errwrap.Wrapf, with the offending handle or node id
// attached to the message. An error from a caller-supplied functor is not
// wrapped: Operator.Execute returns it unchanged.
var (
	// ErrUnknownHandle: insert_operation references a handle not
	// registered in the schedule.
	ErrUnknownHandle = errors.New("schedule: unknown handle")
	// ErrDuplicateHandle: insert_schedule_multidim given an id already
	// present.
	ErrDuplicateHandle = errors.New("schedule: duplicate handle")
	// ErrAbstractSource: emplace/insert given an abstract handle as a
	// source.
	ErrAbstractSource = errors.New("schedule: abstract handle used as source")
	// ErrOperationNotAllowed: argument already marked for deletion by
	// another op, or new op deletes an arg still used by an unexecuted
	// op.
	ErrOperationNotAllowed = errors.New("schedule: operation not allowed")
	// ErrNotReady: execute() called on an op with abstract arguments.
	ErrNotReady = errors.New("schedule: operation not ready")
	// ErrAlreadyExecuted: execute() called twice on the same op.
	ErrAlreadyExecuted = errors.New("schedule: operation already executed")
	// ErrAlreadyConcrete: materialize() called on a handle that is
	// already concrete.
	ErrAlreadyConcrete = errors.New("schedule: handle already concrete")
	// ErrIncompatibleVariables: update_args given args with different
	// variable sets.
	ErrIncompatibleVariables = errors.New("schedule: incompatible variables")
)
