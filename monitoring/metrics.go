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

// Package monitoring defines the small metrics facade merkle.Tree records
// operation counts and latencies through (SPEC_FULL.md §B.5). It mirrors
// the real Trillian codebase's split between an OpenCensus-backed and a
// Prometheus-backed implementation behind one interface.
package monitoring

// Metrics receives counts and latencies for tree operations. ObserveLatency
// starts a timer and returns a function that stops it and records the
// elapsed duration; this shape lets callers write a single defer.
type Metrics interface {
	// IncCounter increments the named operation's counter, tagged by
	// whether it succeeded/found a result.
	IncCounter(op string, success bool)

	// ObserveLatency starts timing op and returns a stop function.
	ObserveLatency(op string) (stop func())
}
