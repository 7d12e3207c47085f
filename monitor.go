/*
 * Copyright 2026 XIPC Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package xipc

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/metric"
)

// PrometheusMonitor implements Monitor by exporting every session's metrics
// as prometheus gauges/counters, per SPEC_FULL.md §4.H. Grounded on the
// teacher's stats.go Monitor interface; the export backend is new since the
// teacher never wired a metrics exporter.
type PrometheusMonitor struct {
	outFlow    *prometheus.CounterVec
	inFlow     *prometheus.CounterVec
	notify     *prometheus.CounterVec
	brokenPipe *prometheus.CounterVec
	shmInUse   *prometheus.GaugeVec
	shmTotal   *prometheus.GaugeVec

	mu          sync.Mutex
	meter       metric.Meter
	flowCounter metric.Int64Counter
}

// NewPrometheusMonitor builds a PrometheusMonitor and registers its
// collectors with reg. If meter is non-nil, flow bytes are additionally
// recorded through an OpenTelemetry counter for pipelines that export via
// OTLP rather than a Prometheus scrape.
func NewPrometheusMonitor(reg prometheus.Registerer, meter metric.Meter) (*PrometheusMonitor, error) {
	m := &PrometheusMonitor{
		outFlow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xipc", Name: "out_flow_bytes_total", Help: "bytes written per session",
		}, []string{"session"}),
		inFlow: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xipc", Name: "in_flow_bytes_total", Help: "bytes read per session",
		}, []string{"session"}),
		notify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xipc", Name: "notify_total", Help: "wakeup notifications sent per session",
		}, []string{"session"}),
		brokenPipe: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "xipc", Name: "broken_pipe_total", Help: "broken wakeup pipes observed per session",
		}, []string{"session"}),
		shmInUse: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xipc", Name: "shm_in_use_bytes", Help: "unread bytes currently buffered per session",
		}, []string{"session"}),
		shmTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "xipc", Name: "shm_capacity_bytes", Help: "mapped shared memory bytes per session",
		}, []string{"session"}),
	}

	for _, c := range []prometheus.Collector{m.outFlow, m.inFlow, m.notify, m.brokenPipe, m.shmInUse, m.shmTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	if meter != nil {
		m.meter = meter
		counter, err := meter.Int64Counter("xipc.flow_bytes")
		if err != nil {
			return nil, err
		}
		m.flowCounter = counter
	}
	return m, nil
}

// OnEmitSessionMetrics implements Monitor.
func (m *PrometheusMonitor) OnEmitSessionMetrics(perf PerformanceMetrics, stab StabilityMetrics, shm ShareMemoryMetrics, s *Session) {
	name := s.Name()
	m.outFlow.WithLabelValues(name).Add(float64(perf.OutFlowBytes))
	m.inFlow.WithLabelValues(name).Add(float64(perf.InFlowBytes))
	m.notify.WithLabelValues(name).Add(float64(perf.NotifyCount))
	m.brokenPipe.WithLabelValues(name).Add(float64(stab.BrokenPipeCount))
	m.shmInUse.WithLabelValues(name).Set(float64(shm.InUseShareMemoryInBytes))
	m.shmTotal.WithLabelValues(name).Set(float64(shm.CapacityOfShareMemoryInBytes))

	if m.flowCounter != nil {
		m.flowCounter.Add(context.Background(), int64(perf.OutFlowBytes+perf.InFlowBytes))
	}
}

// Flush is a no-op for PrometheusMonitor: collectors are pull-based.
func (m *PrometheusMonitor) Flush() error { return nil }

// RunMonitorLoop periodically snapshots s and hands it to mon, until ctx is
// cancelled. Grounded on the teacher's session's periodic metrics loop
// shape (a ticker calling into the configured Monitor).
func RunMonitorLoop(ctx context.Context, s *Session, mon Monitor, period time.Duration) {
	if mon == nil {
		return
	}
	if period <= 0 {
		period = 30 * time.Second
	}
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = mon.Flush()
			return
		case <-ticker.C:
			perf, stab, shm := s.Snapshot()
			mon.OnEmitSessionMetrics(perf, stab, shm, s)
		}
	}
}
