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

import "github.com/bytedance/gopkg/lang/dirtmake"

// ring is the lock-free SPSC byte queue described in SPEC_FULL.md §4.B.
// It never blocks: push/pop only ever report how many bytes were actually
// moved. Exactly one goroutine may call push (the producer side of this
// ring), and exactly one goroutine may call pop (the consumer side); mixing
// callers is undefined, matching spec.md §5's SPSC contract.
type ring struct {
	header *ringHeader
	data   []byte
	cap    int64
}

func newRing(header *ringHeader, data []byte) *ring {
	if len(data) != int(header.Capacity()) {
		panic("xipc: ring data region size mismatch with header capacity")
	}
	return &ring{header: header, data: data, cap: int64(header.Capacity())}
}

// push copies up to len(src) bytes into the ring, returning how many were
// actually written. It never blocks and never returns a partial-write error:
// 0 means full, a value less than len(src) means the ring absorbed a prefix.
func (r *ring) push(src []byte) int {
	if len(src) == 0 {
		return 0
	}
	w := r.header.loadWrite(orderRelaxed) // only the producer mutates write_idx
	read := r.header.loadRead(orderAcquire)
	free := r.cap - (w - read)
	if free <= 0 {
		return 0
	}
	n := int64(len(src))
	if n > free {
		n = free
	}
	p := w % r.cap
	if p+n <= r.cap {
		copy(r.data[p:p+n], src[:n])
	} else {
		first := r.cap - p
		copy(r.data[p:], src[:first])
		copy(r.data[:n-first], src[first:n])
	}
	r.header.storeWrite(w + n) // release: publishes the bytes just copied
	return int(n)
}

// pop copies up to len(dst) bytes out of the ring, returning how many were
// actually read. It never blocks; 0 means empty.
func (r *ring) pop(dst []byte) int {
	if len(dst) == 0 {
		return 0
	}
	read := r.header.loadRead(orderRelaxed) // only the consumer mutates read_idx
	w := r.header.loadWrite(orderAcquire)
	avail := w - read
	if avail <= 0 {
		return 0
	}
	n := int64(len(dst))
	if n > avail {
		n = avail
	}
	p := read % r.cap
	if p+n <= r.cap {
		copy(dst[:n], r.data[p:p+n])
	} else {
		first := r.cap - p
		copy(dst[:first], r.data[p:])
		copy(dst[first:n], r.data[:n-first])
	}
	r.header.storeRead(read + n) // release: publishes the freed space
	return int(n)
}

// readable returns a snapshot of the number of unread bytes. Not authoritative
// after any concurrent push/pop, per spec.md §4.E.
func (r *ring) readable() int {
	read := r.header.loadRead(orderRelaxed)
	w := r.header.loadWrite(orderAcquire)
	return int(w - read)
}

// writable returns a snapshot of the number of free bytes. Not authoritative
// after any concurrent push/pop, per spec.md §4.E.
func (r *ring) writable() int {
	w := r.header.loadWrite(orderRelaxed)
	read := r.header.loadRead(orderAcquire)
	return int(r.cap - (w - read))
}

// allocUninit returns an owned buffer of exactly size bytes without
// zero-initializing it, for callers (Stream.ReadBytes) that are about to
// fully overwrite it via pop. Grounded on buffer.go's ReadBytes, which uses
// dirtmake.Bytes for the same reason.
func allocUninit(size int) []byte {
	return dirtmake.Bytes(size, size)
}
