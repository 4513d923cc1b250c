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

package prometheusmetrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"

	"github.com/prometheus/client_golang/prometheus"
)

func TestIncCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg, "smttest")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	m.IncCounter("update", true)
	m.IncCounter("update", true)
	m.IncCounter("update", false)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}

	var got *dto.MetricFamily
	for _, f := range families {
		if f.GetName() == "smttest_smt_operations_total" {
			got = f
		}
	}
	if got == nil {
		t.Fatalf("metric family smttest_smt_operations_total not found in %v", families)
	}
	if len(got.Metric) != 2 {
		t.Fatalf("got %d label combinations, want 2 (success=true, success=false)", len(got.Metric))
	}
}

func TestObserveLatency(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg, "smttest")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	stop := m.ObserveLatency("get")
	stop()

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "smttest_smt_operation_latency_seconds" {
			found = true
		}
	}
	if !found {
		t.Fatalf("metric family smttest_smt_operation_latency_seconds not found in %v", families)
	}
}
