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

// Package executor drives a schedule.Schedule to completion. The Schedule
// itself only specifies the pluggable contract (spec.md §5); this package
// supplies the two concrete implementations SPEC_FULL.md adds: a Serial
// executor for the common case, and a Pool executor for the "layer above the
// spec" spec.md §9 describes, grounded on pgraph.Graph's Worker/Start
// goroutine-per-vertex pattern.
package executor

import (
	"log"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/infersched/schedcore/schedule"
)

// Config configures an executor. A zero Config is valid: WorkerPoolSize of
// zero means "one" for Pool, and a nil Registry disables metrics.
type Config struct {
	// WorkerPoolSize bounds how many operations Pool executes at once.
	// Unused by Serial.
	WorkerPoolSize int
	// Registry, if non-nil, receives the executor's Prometheus metrics.
	Registry *prometheus.Registry
}

// Serial drains a Schedule's available operations one at a time on the
// calling goroutine, in the style of pgraph.Graph.Worker's per-resource
// processing loop (adapted: no Watch/converger loop, since every operation
// here is a pure function call that returns instead of a long-running
// resource).
type Serial struct {
	cfg *metrics
}

// NewSerial returns a Serial executor.
func NewSerial(cfg Config, sched *schedule.Schedule) *Serial {
	return &Serial{cfg: newMetrics(cfg.Registry, sched.UUID())}
}

// Run executes every operation in sched until none remain available,
// serially, in an arbitrary order among the available set at each step.
func (e *Serial) Run(sched *schedule.Schedule) error {
	for {
		available := sched.AvailableOperations()
		e.cfg.observeAvailable(len(available))
		if len(available) == 0 {
			return nil
		}
		for node := range available {
			if err := execOne(sched, node, e.cfg); err != nil {
				return err
			}
			break // re-poll available_operations after each execution
		}
	}
}

// execOne executes the operator at node and reports the result to sched via
// UpdateAfterExecution, exactly once, per spec.md §5's executor contract.
func execOne(sched *schedule.Schedule, node uint64, m *metrics) error {
	op, ok := sched.Operation(node)
	if !ok {
		return nil // already retired by a racing caller
	}
	log.Printf("executor: dispatching %s at node %d", op.Kind(), node)
	start := time.Now()
	if err := op.Execute(); err != nil {
		m.observeFailed(op.Kind().String())
		return err
	}
	m.observeExecuted(op.Kind().String(), time.Since(start).Seconds())
	if _, err := sched.UpdateAfterExecution(node, true); err != nil {
		return err
	}
	log.Printf("executor: node %d done", node)
	return nil
}

// Pool executes available operations on a fixed-size worker pool, calling
// UpdateAfterExecution under a single mutex guarding the Schedule — the
// layered executor spec.md §9 describes as sitting "above the spec": the
// Schedule's own invariants (disjoint-argument DAG edges) are what make it
// safe to run two available operations concurrently in the first place.
type Pool struct {
	size int
	cfg  *metrics
}

// NewPool returns a Pool executor bounded by cfg.WorkerPoolSize (at least 1).
func NewPool(cfg Config, sched *schedule.Schedule) *Pool {
	size := cfg.WorkerPoolSize
	if size < 1 {
		size = 1
	}
	return &Pool{size: size, cfg: newMetrics(cfg.Registry, sched.UUID())}
}

// Run executes every operation in sched, dispatching up to Pool's size
// operations concurrently, until none remain available or an error occurs.
func (p *Pool) Run(sched *schedule.Schedule) error {
	sem := newSemaphore(p.size)
	defer sem.close()

	var mu chanMutex
	mu.init()

	errCh := make(chan error, 1)
	var inFlight int
	doneCh := make(chan uint64)
	// dispatched tracks nodes handed to a worker but not yet retired via
	// UpdateAfterExecution: a node stays "available" (in-degree zero)
	// until that call runs, so without this guard a second dispatch pass
	// could hand the same node to a second worker and execute it twice.
	dispatched := make(map[uint64]bool)

	dispatch := func() {
		mu.lock()
		available := sched.AvailableOperations()
		p.cfg.observeAvailable(len(available))
		for node := range available {
			if dispatched[node] {
				continue
			}
			// tryAcquire, not acquire: blocking here while holding mu
			// would deadlock against a running worker's own mu.lock()
			// in execOneLocked. When the pool is full, this node is
			// simply picked up again on the next doneCh-triggered
			// dispatch.
			if !sem.tryAcquire() {
				continue
			}
			node := node
			dispatched[node] = true
			inFlight++
			go func() {
				err := execOneLocked(sched, node, p.cfg, &mu)
				sem.release()
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
				}
				doneCh <- node
			}()
		}
		mu.unlock()
	}

	dispatch()
	for inFlight > 0 {
		select {
		case err := <-errCh:
			return err
		case node := <-doneCh:
			mu.lock()
			inFlight--
			delete(dispatched, node)
			mu.unlock()
			dispatch()
		}
	}
	select {
	case err := <-errCh:
		return err
	default:
		return nil
	}
}

// execOneLocked runs one operation's functor unlocked (the functor may be
// slow; the Schedule invariants guarantee no two concurrently-available
// operations touch overlapping handles), then takes mu only around the
// Schedule's own bookkeeping call.
func execOneLocked(sched *schedule.Schedule, node uint64, m *metrics, mu *chanMutex) error {
	mu.lock()
	op, ok := sched.Operation(node)
	mu.unlock()
	if !ok {
		return nil
	}
	start := time.Now()
	err := op.Execute()
	if err != nil {
		m.observeFailed(op.Kind().String())
		return err
	}
	m.observeExecuted(op.Kind().String(), time.Since(start).Seconds())

	mu.lock()
	_, err = sched.UpdateAfterExecution(node, true)
	mu.unlock()
	return err
}

// chanMutex is a channel-based mutex (pgraph.Graph.mutex is a plain
// sync.Mutex, but this package already uses channel-based semaphores for
// pool bounding, so the pool's single guard lock follows the same idiom for
// consistency within this package).
type chanMutex struct {
	c chan struct{}
}

func (m *chanMutex) init()   { m.c = make(chan struct{}, 1) }
func (m *chanMutex) lock()   { m.c <- struct{}{} }
func (m *chanMutex) unlock() { <-m.c }
