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

import "sync/atomic"

// Monitor can receive periodic metric snapshots from a Session or a
// SessionManager. Grounded on the teacher's stats.go Monitor interface.
type Monitor interface {
	// OnEmitSessionMetrics is called periodically with a snapshot of one
	// session's performance, stability and shared-memory metrics.
	OnEmitSessionMetrics(PerformanceMetrics, StabilityMetrics, ShareMemoryMetrics, *Session)
	// Flush gives the monitor a chance to push buffered metrics out.
	Flush() error
}

// stats holds the raw atomic counters embedded in a Session. Field names
// track the teacher's stats.go where the concept survives (outFlowBytes,
// inFlowBytes, allocShmErrorCount); new counters are added for concepts
// this package has that the teacher's multiplexed stream didn't
// (notifyCount, brokenPipeCount replace SyncEvent/queue counters that were
// about the teacher's own wire protocol).
type stats struct {
	outFlowBytes    uint64
	inFlowBytes     uint64
	notifyCount     uint64
	waitCount       uint64
	brokenPipeCount uint64

	allocShmErrorCount  uint64
	reconnectCount      uint64
	reconnectErrorCount uint64
	handshakeErrorCount uint64
}

// PerformanceMetrics reports throughput and notification volume.
type PerformanceMetrics struct {
	OutFlowBytes uint64 // bytes written by this process
	InFlowBytes  uint64 // bytes read by this process
	NotifyCount  uint64 // wakeup-pipe notifications sent
	WaitCount    uint64 // times this process parked on a wakeup pipe
}

// StabilityMetrics reports error and recovery counters. Only
// BrokenPipeCount is incremented by this package; AllocShmErrorCount,
// ReconnectCount, ReconnectErrorCount and HandshakeErrorCount are never
// incremented on a Session and always read zero.
type StabilityMetrics struct {
	AllocShmErrorCount  uint64 // not incremented; always zero
	BrokenPipeCount     uint64 // times a blocking Read/Write on this session failed its wait with ErrBrokenPipe
	ReconnectCount      uint64 // not incremented; always zero
	ReconnectErrorCount uint64 // not incremented; always zero
	HandshakeErrorCount uint64 // not incremented; always zero
}

// ShareMemoryMetrics reports the shared memory footprint of a session.
type ShareMemoryMetrics struct {
	CapacityOfShareMemoryInBytes uint64 // total bytes mapped for this session (both rings)
	InUseShareMemoryInBytes      uint64 // bytes currently holding unread data (both rings)
}

// Snapshot returns a point-in-time view of this session's metrics, per
// SPEC_FULL.md §4.H. Safe to call concurrently with Read/Write.
func (s *Session) Snapshot() (PerformanceMetrics, StabilityMetrics, ShareMemoryMetrics) {
	perf := PerformanceMetrics{
		OutFlowBytes: atomic.LoadUint64(&s.stats.outFlowBytes),
		InFlowBytes:  atomic.LoadUint64(&s.stats.inFlowBytes),
		NotifyCount:  atomic.LoadUint64(&s.stats.notifyCount),
		WaitCount:    atomic.LoadUint64(&s.stats.waitCount),
	}
	stab := StabilityMetrics{
		AllocShmErrorCount:  atomic.LoadUint64(&s.stats.allocShmErrorCount),
		BrokenPipeCount:     atomic.LoadUint64(&s.stats.brokenPipeCount),
		ReconnectCount:      atomic.LoadUint64(&s.stats.reconnectCount),
		ReconnectErrorCount: atomic.LoadUint64(&s.stats.reconnectErrorCount),
		HandshakeErrorCount: atomic.LoadUint64(&s.stats.handshakeErrorCount),
	}
	var shm ShareMemoryMetrics
	if s.shm != nil {
		total := uint64(len(s.shm.mem))
		shm = ShareMemoryMetrics{
			CapacityOfShareMemoryInBytes: total,
			InUseShareMemoryInBytes:      uint64(s.sendRing.readable() + s.recvRing.readable()),
		}
	}
	return perf, stab, shm
}
