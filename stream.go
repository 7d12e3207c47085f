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

// Write implements spec.md §4.E.1. Non-blocking mode returns ErrWouldBlock
// as soon as the ring can't absorb any more; blocking mode loops until the
// full buffer has been submitted, matching stream-socket conventions.
//
// Notification policy: this implementation always notifies after any
// non-zero transfer (the "simplest correct policy" of §4.E.3), rather than
// the empty/full-transition optimisation §9 flags as needing careful proof.
func (s *Session) Write(buf []byte) (int, error) {
	if s.IsClosed() {
		return 0, ErrClosed
	}
	if s.isBroken() {
		return 0, ErrBrokenPipe
	}
	if len(buf) == 0 {
		return 0, nil
	}

	if s.isNonblock() {
		n := s.sendRing.push(buf)
		if n == 0 {
			return 0, ErrWouldBlock
		}
		s.afterSend(n)
		return n, nil
	}

	total := 0
	for total < len(buf) {
		n := s.sendRing.push(buf[total:])
		if n > 0 {
			s.afterSend(n)
			total += n
			continue
		}
		atomic.AddUint64(&s.stats.waitCount, 1)
		// Wait on recvPipe, not sendPipe: sendPipe is where this side
		// writes its own notifications, and the peer's "space freed"
		// signal for this ring arrives on recvPipe (see afterRecv and
		// session.go's Session doc comment). Waiting on sendPipe here
		// would risk reading back a notify byte this process itself just
		// wrote, before the peer ever saw it.
		if err := s.recvPipe.waitAbortable(s.abortR); err != nil {
			return total, s.classifyWaitErr(err)
		}
	}
	return total, nil
}

// Read implements spec.md §4.E.2. Blocking reads return as soon as at least
// one byte is available; there is no minimum-read guarantee beyond 1, per
// stream-socket semantics.
func (s *Session) Read(buf []byte) (int, error) {
	if s.IsClosed() {
		return 0, ErrClosed
	}
	if s.isBroken() {
		return 0, ErrBrokenPipe
	}
	if len(buf) == 0 {
		return 0, nil
	}

	if s.isNonblock() {
		n := s.recvRing.pop(buf)
		if n == 0 {
			return 0, ErrWouldBlock
		}
		s.afterRecv(n)
		return n, nil
	}

	for {
		n := s.recvRing.pop(buf)
		if n > 0 {
			s.afterRecv(n)
			return n, nil
		}
		atomic.AddUint64(&s.stats.waitCount, 1)
		if err := s.recvPipe.waitAbortable(s.abortR); err != nil {
			return 0, s.classifyWaitErr(err)
		}
	}
}

// ReadBytes allocates and returns exactly size bytes, blocking until they
// are all available. It's a convenience on top of Read for callers that
// want an owned buffer instead of managing their own, grounded on the
// teacher's BufferReader.ReadBytes/dirtmake.Bytes idiom (see ring.go).
func (s *Session) ReadBytes(size int) ([]byte, error) {
	if size <= 0 {
		return nil, nil
	}
	out := allocUninit(size)
	read := 0
	for read < size {
		n, err := s.Read(out[read:])
		read += n
		if err != nil {
			return out[:read], err
		}
	}
	return out, nil
}

func (s *Session) afterSend(n int) {
	atomic.AddUint64(&s.stats.outFlowBytes, uint64(n))
	atomic.AddUint64(&s.stats.notifyCount, 1)
	if err := s.sendPipe.notify(); err != nil {
		s.markBroken()
	}
}

func (s *Session) afterRecv(n int) {
	atomic.AddUint64(&s.stats.inFlowBytes, uint64(n))
	atomic.AddUint64(&s.stats.notifyCount, 1)
	// Notify on sendPipe, not recvPipe: this is an outbound "space freed"
	// signal to the peer, and this side must never write to the pipe it
	// also waits on (recvPipe) or it could steal back its own byte on the
	// next waitAbortable call before the peer reads it. See afterSend and
	// session.go's Session doc comment.
	if err := s.sendPipe.notify(); err != nil {
		s.markBroken()
	}
}

func (s *Session) classifyWaitErr(err error) error {
	switch err {
	case ErrBrokenPipe:
		s.markBroken()
		atomic.AddUint64(&s.stats.brokenPipeCount, 1)
		return ErrBrokenPipe
	case ErrInterrupted:
		return ErrInterrupted
	default:
		return err
	}
}

// ReadableBytes returns a snapshot hint of unread bytes, per spec.md §4.E.
// Not authoritative after any concurrent Read.
func (s *Session) ReadableBytes() int {
	return s.recvRing.readable()
}

// WritableBytes returns a snapshot hint of free space, per spec.md §4.E.
// Not authoritative after any concurrent Write.
func (s *Session) WritableBytes() int {
	return s.sendRing.writable()
}

// EventFD returns the readable end suitable for external readiness
// multiplexers watching this session for incoming data, per spec.md §4.E.4.
func (s *Session) EventFD() int {
	return s.recvPipe.readableFD()
}

// WriteEventFD returns the readable end that becomes ready when space frees
// up on the send side; useful for multiplexing writers waiting on
// backpressure. It is the same fd as EventFD: both "data available" and
// "space freed" notifications aimed at this process arrive on recvPipe (see
// session.go's Session doc comment), so a caller registering for write
// readiness ends up watching the identical channel and should recheck
// WritableBytes on wakeup rather than assume the event implies data.
func (s *Session) WriteEventFD() int {
	return s.recvPipe.readableFD()
}
