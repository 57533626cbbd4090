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

// Package idgen hands out process-unique, monotonically increasing ids. A
// single counter backs both schedule handles and schedule DAG nodes; the
// source this package replaces kept two separate generators, which turned
// out to be an unneeded split.
package idgen

import "sync/atomic"

var counter uint64

// Next returns the next id in the sequence. It is safe for concurrent use.
func Next() uint64 {
	return atomic.AddUint64(&counter, 1)
}

// ResetForTesting rewinds the counter to zero. It exists only so that
// regression tests can assert on exact id values; production code must
// never call it.
func ResetForTesting() {
	atomic.StoreUint64(&counter, 0)
}
