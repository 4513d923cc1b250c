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

// Package ocmetrics is a monitoring.Metrics backed by go.opencensus.io,
// optionally exported to Stackdriver. It is the OpenCensus counterpart to
// monitoring/prometheusmetrics, mirroring the real Trillian codebase's
// split between the two monitoring backends.
package ocmetrics

import (
	"context"
	"time"

	"contrib.go.opencensus.io/exporter/stackdriver"
	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	opKey, _ = tag.NewKey("op")

	opCount   = stats.Int64("smt/operation_count", "Number of tree operations", stats.UnitDimensionless)
	opFailure = stats.Int64("smt/operation_failure_count", "Number of unsuccessful tree operations", stats.UnitDimensionless)
	opLatency = stats.Float64("smt/operation_latency", "Latency of tree operations", stats.UnitMilliseconds)
)

// Views are the OpenCensus views exported by this package; callers must
// register them (view.Register(Views...)) once, before using Metrics.
var Views = []*view.View{
	{Name: "smt/operation_count", Measure: opCount, Aggregation: view.Count(), TagKeys: []tag.Key{opKey}},
	{Name: "smt/operation_failure_count", Measure: opFailure, Aggregation: view.Count(), TagKeys: []tag.Key{opKey}},
	{Name: "smt/operation_latency", Measure: opLatency, Aggregation: view.Distribution(0, 1, 5, 10, 25, 50, 100, 250, 500, 1000), TagKeys: []tag.Key{opKey}},
}

// Metrics implements monitoring.Metrics on top of OpenCensus stats.
type Metrics struct {
	ctx context.Context
}

// New returns a Metrics that records through the default OpenCensus stats
// recorder. Register Views before any operation is recorded.
func New() *Metrics {
	return &Metrics{ctx: context.Background()}
}

// NewStackdriverExporter constructs and starts an OpenCensus Stackdriver
// exporter for the given GCP project, so the views in Views show up in
// Cloud Monitoring. Callers are responsible for calling Flush on shutdown.
func NewStackdriverExporter(projectID string) (*stackdriver.Exporter, error) {
	exporter, err := stackdriver.NewExporter(stackdriver.Options{ProjectID: projectID})
	if err != nil {
		return nil, err
	}
	view.RegisterExporter(exporter)
	return exporter, nil
}

// IncCounter implements monitoring.Metrics.
func (m *Metrics) IncCounter(op string, success bool) {
	ctx, err := tag.New(m.ctx, tag.Insert(opKey, op))
	if err != nil {
		return
	}
	stats.Record(ctx, opCount.M(1))
	if !success {
		stats.Record(ctx, opFailure.M(1))
	}
}

// ObserveLatency implements monitoring.Metrics.
func (m *Metrics) ObserveLatency(op string) func() {
	start := time.Now()
	return func() {
		ctx, err := tag.New(m.ctx, tag.Insert(opKey, op))
		if err != nil {
			return
		}
		stats.Record(ctx, opLatency.M(float64(time.Since(start).Milliseconds())))
	}
}
