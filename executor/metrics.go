// Mgmt
// Copyright (C) 2013-2016+ James Shubin and the project contributors
// Written by James Shubin <james@shubin.ca> and the project contributors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package executor

import "github.com/prometheus/client_golang/prometheus"

// metrics are the Prometheus collectors an executor publishes, when a
// Registry is supplied in its Config. Kept optional (nil-safe) because the
// scheduler itself has no metrics opinion; this is purely the executor's
// ambient concern, the same way prometheus/prometheus.go is an optional
// layer the rest of the teacher's codebase can opt into.
type metrics struct {
	operationsExecuted *prometheus.CounterVec
	operationsFailed    *prometheus.CounterVec
	availableGauge      prometheus.Gauge
	duration            *prometheus.HistogramVec
}

func newMetrics(reg *prometheus.Registry, scheduleUUID string) *metrics {
	if reg == nil {
		return nil
	}
	labels := prometheus.Labels{"schedule": scheduleUUID}
	m := &metrics{
		operationsExecuted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "schedule_operations_executed_total",
			Help:        "Number of schedule operations successfully executed.",
			ConstLabels: labels,
		}, []string{"kind"}),
		operationsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "schedule_operations_failed_total",
			Help:        "Number of schedule operations that failed to execute.",
			ConstLabels: labels,
		}, []string{"kind"}),
		availableGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "schedule_available_operations",
			Help:        "Number of operations currently available to execute.",
			ConstLabels: labels,
		}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "schedule_operation_duration_seconds",
			Help:        "Time spent executing a single schedule operation.",
			ConstLabels: labels,
		}, []string{"kind"}),
	}
	reg.MustRegister(m.operationsExecuted, m.operationsFailed, m.availableGauge, m.duration)
	return m
}

func (m *metrics) observeAvailable(n int) {
	if m == nil {
		return
	}
	m.availableGauge.Set(float64(n))
}

func (m *metrics) observeExecuted(kind string, seconds float64) {
	if m == nil {
		return
	}
	m.operationsExecuted.WithLabelValues(kind).Inc()
	m.duration.WithLabelValues(kind).Observe(seconds)
}

func (m *metrics) observeFailed(kind string) {
	if m == nil {
		return
	}
	m.operationsFailed.WithLabelValues(kind).Inc()
}
