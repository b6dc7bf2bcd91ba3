// Copyright (c) 2019 Perlin
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

package greet

import (
	"context"
	"time"

	"github.com/perlin-network/greet/log"
	"github.com/rcrowley/go-metrics"
)

type Metrics struct {
	registry metrics.Registry

	receivedTX metrics.Meter
	appliedTX  metrics.Meter
	rejectedTX metrics.Meter
	greetings  metrics.Meter

	pendingTX metrics.Gauge
	height    metrics.Gauge

	applyLatency metrics.Timer
	stepLatency  metrics.Timer
}

func NewMetrics(ctx context.Context) *Metrics {
	registry := metrics.NewRegistry()

	receivedTX := metrics.NewRegisteredMeter("tx.received", registry)
	appliedTX := metrics.NewRegisteredMeter("tx.applied", registry)
	rejectedTX := metrics.NewRegisteredMeter("tx.rejected", registry)
	greetings := metrics.NewRegisteredMeter("greetings", registry)

	pendingTX := metrics.NewRegisteredGauge("tx.pending", registry)
	height := metrics.NewRegisteredGauge("ledger.height", registry)

	applyLatency := metrics.NewRegisteredTimer("apply.latency", registry)
	stepLatency := metrics.NewRegisteredTimer("step.latency", registry)

	go func() {
		logger := log.Metrics()

		for {
			select {
			case <-time.After(1 * time.Second):
				logger.Info().
					Int64("tx.received", receivedTX.Count()).
					Int64("tx.applied", appliedTX.Count()).
					Int64("tx.rejected", rejectedTX.Count()).
					Int64("greetings", greetings.Count()).
					Int64("tx.pending", pendingTX.Value()).
					Int64("ledger.height", height.Value()).
					Float64("tps.received", receivedTX.Rate1()).
					Float64("tps.applied", appliedTX.Rate1()).
					Str("apply.latency.max.ms", time.Duration(applyLatency.Max()).String()).
					Str("apply.latency.min.ms", time.Duration(applyLatency.Min()).String()).
					Str("apply.latency.mean.ms", time.Duration(applyLatency.Mean()).String()).
					Str("step.latency.max.ms", time.Duration(stepLatency.Max()).String()).
					Str("step.latency.min.ms", time.Duration(stepLatency.Min()).String()).
					Str("step.latency.mean.ms", time.Duration(stepLatency.Mean()).String()).
					Msg("Updated metrics.")
			case <-ctx.Done():
				return
			}
		}
	}()

	return &Metrics{
		registry: registry,

		receivedTX: receivedTX,
		appliedTX:  appliedTX,
		rejectedTX: rejectedTX,
		greetings:  greetings,

		pendingTX: pendingTX,
		height:    height,

		applyLatency: applyLatency,
		stepLatency:  stepLatency,
	}
}

func (m *Metrics) Stop() {
	m.receivedTX.Stop()
	m.appliedTX.Stop()
	m.rejectedTX.Stop()
	m.greetings.Stop()

	m.applyLatency.Stop()
	m.stepLatency.Stop()
}
