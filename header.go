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
	"sync/atomic"
	"unsafe"
)

// ringHeader is an unsafe.Pointer view over the fixed header region of a
// mapped shared memory segment, laid out exactly as SPEC_FULL.md §3.2/§6.2:
//
//	offset 0   magic       uint32
//	offset 4   version     uint32
//	offset 8   capacity    uint32
//	offset 12  data_offset uint32
//	offset 64  read_idx    int64 (atomic)
//	offset 128 write_idx   int64 (atomic)
//
// read_idx and write_idx sit on separate cache lines (64 bytes apart) so
// the producer's and consumer's writes never false-share.
type ringHeader struct {
	raw      []byte
	magic    *uint32
	version  *uint32
	capacity *uint32
	dataOff  *uint32
	readIdx  *int64
	writeIdx *int64
}

// mapRingHeader wraps an existing header-sized byte slice from shared memory.
// It does not initialize any field; use initRingHeader for that.
func mapRingHeader(b []byte) *ringHeader {
	if len(b) < headerSize {
		panic("xipc: header region too small")
	}
	return &ringHeader{
		raw:      b,
		magic:    (*uint32)(unsafe.Pointer(&b[offMagic])),
		version:  (*uint32)(unsafe.Pointer(&b[offVersion])),
		capacity: (*uint32)(unsafe.Pointer(&b[offCapacity])),
		dataOff:  (*uint32)(unsafe.Pointer(&b[offDataOffset])),
		readIdx:  (*int64)(unsafe.Pointer(&b[offReadIdx])),
		writeIdx: (*int64)(unsafe.Pointer(&b[offWriteIdx])),
	}
}

// initRingHeader is called exactly once by the Creator, before the Attacher
// maps the segment (SPEC_FULL.md §3.3 invariant 3, §4.D.1 step 5-6).
func initRingHeader(b []byte, capacity uint32, dataOffset uint32) *ringHeader {
	h := mapRingHeader(b)
	atomic.StoreInt64(h.readIdx, 0)
	atomic.StoreInt64(h.writeIdx, 0)
	*h.capacity = capacity
	*h.dataOff = dataOffset
	*h.version = headerVersion
	// magic is written last: an Attacher gated on the control-plane ack
	// (SPEC_FULL.md §4.D "header publication race") only ever observes a
	// fully initialized header once magic is visible.
	*h.magic = headerMagic
	return h
}

// verify checks the magic/version fields an Attacher must validate before
// trusting capacity/dataOff, per spec.md §4.D.1 Attacher step 3.
func (h *ringHeader) verify() error {
	if *h.magic != headerMagic || *h.version != headerVersion {
		return ErrMalformed
	}
	return nil
}

func (h *ringHeader) Capacity() uint32   { return *h.capacity }
func (h *ringHeader) DataOffset() uint32 { return *h.dataOff }

func (h *ringHeader) loadRead(order memOrder) int64 {
	return atomic.LoadInt64(h.readIdx)
}

func (h *ringHeader) loadWrite(order memOrder) int64 {
	return atomic.LoadInt64(h.writeIdx)
}

func (h *ringHeader) storeRead(v int64) {
	atomic.StoreInt64(h.readIdx, v)
}

func (h *ringHeader) storeWrite(v int64) {
	atomic.StoreInt64(h.writeIdx, v)
}

// memOrder documents the intended memory-ordering role of an atomic access;
// Go's sync/atomic provides sequential consistency for these operations on
// every architecture this package supports, which is strictly stronger than
// the acquire/release pairing SPEC_FULL.md §4.A requires, so memOrder is a
// documentation-only marker rather than a mechanism.
type memOrder uint8

const (
	orderRelaxed memOrder = iota
	orderAcquire
	orderRelease
)
