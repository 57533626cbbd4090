// Mgmt
// Copyright (C) 2013-2021+ James Shubin and the project contributors
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

package executor

import "fmt"

// semaphore is a counting semaphore bounding how many operations the worker
// pool executes at once.
type semaphore struct {
	c      chan struct{}
	closed chan struct{}
}

func newSemaphore(size int) *semaphore {
	return &semaphore{
		c:      make(chan struct{}, size),
		closed: make(chan struct{}),
	}
}

// acquire blocks until a slot is free.
func (s *semaphore) acquire() error {
	select {
	case s.c <- struct{}{}:
		return nil
	case <-s.closed:
		return fmt.Errorf("executor: semaphore closed")
	}
}

// tryAcquire claims a slot without blocking, reporting false if none is free.
func (s *semaphore) tryAcquire() bool {
	select {
	case s.c <- struct{}{}:
		return true
	default:
		return false
	}
}

// release frees a slot.
func (s *semaphore) release() {
	<-s.c
}

// close wakes up any goroutine blocked in acquire.
func (s *semaphore) close() {
	close(s.closed)
}
