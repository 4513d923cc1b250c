// Copyright 2016 Google Inc. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package prometheusmetrics is a monitoring.Metrics backed by
// github.com/prometheus/client_golang, for scraping via promhttp.Handler().
package prometheusmetrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics implements monitoring.Metrics on top of a Prometheus registry.
type Metrics struct {
	ops     *prometheus.CounterVec
	latency *prometheus.HistogramVec
}

// New registers the tree-operation metrics with reg and returns a Metrics
// that records against them.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	ops := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "smt",
		Name:      "operations_total",
		Help:      "Total number of tree operations, by op and outcome.",
	}, []string{"op", "success"})

	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "smt",
		Name:      "operation_latency_seconds",
		Help:      "Latency of tree operations, by op.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	if err := reg.Register(ops); err != nil {
		return nil, err
	}
	if err := reg.Register(latency); err != nil {
		return nil, err
	}

	return &Metrics{ops: ops, latency: latency}, nil
}

// IncCounter implements monitoring.Metrics.
func (m *Metrics) IncCounter(op string, success bool) {
	m.ops.WithLabelValues(op, boolLabel(success)).Inc()
}

// ObserveLatency implements monitoring.Metrics.
func (m *Metrics) ObserveLatency(op string) func() {
	start := time.Now()
	return func() {
		m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	}
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
