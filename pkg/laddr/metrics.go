/*
Copyright 2026 The Allocator Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package laddr

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the allocator updates from the
// Bind/Unbind fast path. Logging in this package is a side effect only and
// never changes a returned Status; these counters are the same kind of
// side channel, exposed for operators instead of for control flow.
type Metrics struct {
	BindSuccess  prometheus.Counter
	BindFailures prometheus.Counter
	UnbindTotal  prometheus.Counter
	ConnCounts   *prometheus.GaugeVec
}

// NewMetrics constructs a fresh Metrics and registers its collectors with
// reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BindSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lipalloc_bind_success_total",
			Help: "Total number of successful local-address binds.",
		}),
		BindFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lipalloc_bind_failures_total",
			Help: "Total number of binds that exhausted their trial budget.",
		}),
		UnbindTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "lipalloc_unbind_total",
			Help: "Total number of unbinds processed.",
		}),
		ConnCounts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "lipalloc_laddr_conn_counts",
			Help: "Current number of live connections bound through a local address.",
		}, []string{"addr"}),
	}

	if reg != nil {
		reg.MustRegister(m.BindSuccess, m.BindFailures, m.UnbindTotal, m.ConnCounts)
	}
	return m
}

// globalMetrics is the default Metrics instance used by allocators created
// without an explicit registry, so unit tests that never call
// SetGlobalMetrics still exercise the instrumented code paths.
var globalMetrics = NewMetrics(nil)

// SetGlobalMetrics replaces the default Metrics instance, typically with
// one registered against the process's Prometheus registry at startup.
func SetGlobalMetrics(m *Metrics) {
	globalMetrics = m
}
