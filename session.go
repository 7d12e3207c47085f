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
	"fmt"
	"net"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// ring slot indices into the two rings packed into one shm segment, see shm.go.
const (
	slotS2C = 0 // creator writes, attacher reads
	slotC2S = 1 // attacher writes, creator reads
)

// Session is the in-memory, per-process descriptor of one open connection,
// per spec.md §3.1. It wraps two rings (one per direction) sharing a single
// shared memory segment, and the two named pipes that drive their wakeups.
//
// Both peers open both FIFOs O_RDWR (spec.md §4.D.1 step 4, §9) purely to
// avoid open-time blocking, but each fd is used unidirectionally in
// practice: a Session only ever *writes* to sendPipe (both "I produced
// data" and "I freed space" are outbound notifications to the peer) and
// only ever *waits on* recvPipe (both "data is available" and "space is
// available" arrive there, since a parked reader always re-checks its own
// index state on wakeup and spurious wakeups are tolerated, spec.md §9).
// Enforcing that split is what lets one physical pipe carry two logically
// distinct signals safely: since this side never reads its own sendPipe,
// it can never steal back a wakeup byte it just wrote for the peer before
// the peer gets to read it. This is also why Session doesn't need four
// pipes for full duplex, only the two named in spec.md §6.1 — the
// Creator's sendPipe is the Attacher's recvPipe (s2c) and vice versa (c2s).
type Session struct {
	name   string
	role   Role
	config *Config
	logger *logger

	shm *shmSegment

	sendRing *ring
	recvRing *ring
	sendPipe *wakeupChannel // written by me: data produced, or space freed
	recvPipe *wakeupChannel // waited on by me: data or space, from the peer

	shmPath string
	s2cPath string
	c2sPath string

	// ctrlConn is the still-open control-plane connection from the
	// handshake (control.go), kept alive for the session's lifetime purely
	// as a peer-liveness signal: an OS-level close/EOF on it means the peer
	// process exited. abortR/abortW are an internal (non-shared) self-pipe
	// used to unblock a Read/Write parked in recvPipe.wait once that
	// happens, per spec.md §8.3.5.
	ctrlConn         net.Conn
	livenessWG       sync.WaitGroup
	abortR, abortW   int
	aborted          int32

	nonblock int32
	closed   int32
	broken   int32

	stats stats
}

func derivePaths(prefix, name string) (shmPath, s2cPath, c2sPath string) {
	base := fmt.Sprintf("%s_%s", prefix, name)
	return base + shmSuffix, base + pipeSuffixS2C, base + pipeSuffixC2S
}

// Open establishes or attaches to a named session, per spec.md §4.D.1.
func Open(name string, capacity uint32, flags OpenFlag, config *Config) (s *Session, err error) {
	if err := validateSessionName(name); err != nil {
		return nil, err
	}
	if config == nil {
		config = DefaultConfig()
	}
	create := flags&FlagCreate != 0
	if create {
		config.RingCapacity = capacity
	}
	if err := VerifyConfig(config); err != nil {
		return nil, err
	}

	shmPath, s2cPath, c2sPath := derivePaths(config.PipeDirPrefix, name)
	sess := &Session{
		name:    name,
		config:  config,
		logger:  newLogger("xipc:"+name, config.LogOutput),
		shmPath: shmPath,
		s2cPath: s2cPath,
		c2sPath: c2sPath,
		abortR:  -1,
		abortW:  -1,
	}
	if flags&FlagNonblock != 0 {
		sess.nonblock = 1
	}

	abortFds := make([]int, 2)
	if perr := unix.Pipe2(abortFds, unix.O_NONBLOCK|unix.O_CLOEXEC); perr != nil {
		return nil, translateErrno(perr)
	}
	sess.abortR, sess.abortW = abortFds[0], abortFds[1]

	defer func() {
		if err != nil {
			sess.teardownPartial()
		}
	}()

	if create {
		sess.role = RoleCreator
		if err = sess.openAsCreator(config.RingCapacity); err != nil {
			return nil, err
		}
	} else {
		sess.role = RoleAttacher
		if err = sess.openAsAttacher(); err != nil {
			return nil, err
		}
	}
	return sess, nil
}

func (s *Session) openAsCreator(capacity uint32) error {
	shm, err := createShm(s.shmPath, capacity)
	if err != nil {
		return err
	}
	s.shm = shm

	s2cHeader := initRingHeader(shm.ringBytes(slotS2C, capacity), capacity, headerSize)
	c2sHeader := initRingHeader(shm.ringBytes(slotC2S, capacity), capacity, headerSize)

	// Creator produces on s2c, consumes on c2s. Each pipe is stored as soon
	// as it exists so teardownPartial can release it if a later step fails.
	s.sendPipe, err = createWakeupPipe(s.s2cPath)
	if err != nil {
		s.sendPipe = nil
		return err
	}
	s.recvPipe, err = createWakeupPipe(s.c2sPath)
	if err != nil {
		s.recvPipe = nil
		return err
	}

	s.sendRing = newRing(s2cHeader, shm.ringBytes(slotS2C, capacity)[headerSize:])
	s.recvRing = newRing(c2sHeader, shm.ringBytes(slotC2S, capacity)[headerSize:])

	s.logger.infof("created session %s capacity=%d", s.name, capacity)
	return nil
}

func (s *Session) openAsAttacher() error {
	shm, err := openShm(s.shmPath)
	if err != nil {
		return err
	}
	s.shm = shm

	// capacity is unknown until we read it from the header; the header
	// region for slot 0 always starts at byte 0 of the segment.
	probe := mapRingHeader(shm.mem[:headerSize])
	if err := probe.verify(); err != nil {
		s.shm.close(false)
		s.shm = nil
		return err
	}
	capacity := probe.Capacity()

	s2cHeader := mapRingHeader(shm.ringBytes(slotS2C, capacity)[:headerSize])
	c2sHeader := mapRingHeader(shm.ringBytes(slotC2S, capacity)[:headerSize])
	if err := s2cHeader.verify(); err != nil {
		return err
	}
	if err := c2sHeader.verify(); err != nil {
		return err
	}

	// Attacher produces on c2s, consumes on s2c. Each pipe is stored as soon
	// as it is open so teardownPartial can release it if a later step fails.
	s.recvPipe, err = openWakeupPipe(s.s2cPath, false)
	if err != nil {
		s.recvPipe = nil
		return err
	}
	s.sendPipe, err = openWakeupPipe(s.c2sPath, false)
	if err != nil {
		s.sendPipe = nil
		return err
	}

	s.sendRing = newRing(c2sHeader, shm.ringBytes(slotC2S, capacity)[headerSize:])
	s.recvRing = newRing(s2cHeader, shm.ringBytes(slotS2C, capacity)[headerSize:])

	s.logger.infof("attached session %s capacity=%d", s.name, capacity)
	return nil
}

// teardownPartial releases whatever resources Open managed to acquire
// before failing, per spec.md §4.D.1/§7 "partially constructed session
// MUST be torn down internally before returning".
func (s *Session) teardownPartial() {
	if s.sendPipe != nil {
		s.sendPipe.close(s.role == RoleCreator)
	}
	if s.recvPipe != nil {
		s.recvPipe.close(s.role == RoleCreator)
	}
	if s.shm != nil {
		s.shm.close(s.role == RoleCreator)
	}
	if s.abortR >= 0 {
		unix.Close(s.abortR)
	}
	if s.abortW >= 0 {
		unix.Close(s.abortW)
	}
}

// attachControlConn hands the still-open control-plane connection from the
// handshake (control.go) to the session and starts watching it for the
// peer process exiting, per spec.md §8.3.5. Grounded on the teacher's
// event_dispatcher.go treating a read error on the control connection as
// the peer going away.
func (s *Session) attachControlConn(conn net.Conn) {
	s.ctrlConn = conn
	s.livenessWG.Add(1)
	go s.watchPeerLiveness()
}

// watchPeerLiveness blocks on the control connection until it errors or
// produces unexpected data, either of which means the peer process is gone
// (nothing is ever sent over it after the handshake). It then marks the
// session broken and unblocks any Read/Write parked in recvPipe.wait.
func (s *Session) watchPeerLiveness() {
	defer s.livenessWG.Done()
	var buf [1]byte
	_, err := s.ctrlConn.Read(buf[:])
	if s.IsClosed() {
		return
	}
	if err != nil {
		s.logger.warnf("xipc: session %s: control connection lost: %s", s.name, err.Error())
	} else {
		s.logger.warnf("xipc: session %s: unexpected control-plane traffic, treating peer as gone", s.name)
	}
	s.markBroken()
	s.signalAbort()
}

// signalAbort wakes any goroutine parked in recvPipe.waitAbortable via the
// session's internal self-pipe. Idempotent.
func (s *Session) signalAbort() {
	if !atomic.CompareAndSwapInt32(&s.aborted, 0, 1) {
		return
	}
	var b [1]byte
	_, _ = unix.Write(s.abortW, b[:])
}

// Close unmaps shared memory and closes descriptors, per spec.md §4.D.2. If
// this session is the Creator and Config.UnlinkOnClose is set, the shared
// memory object and both FIFOs are removed; otherwise resources are left
// for the peer.
func (s *Session) Close() error {
	if !atomic.CompareAndSwapInt32(&s.closed, 0, 1) {
		return ErrClosed
	}
	unlink := s.role == RoleCreator && s.config.UnlinkOnClose
	var firstErr error
	if s.ctrlConn != nil {
		// unblocks watchPeerLiveness's Read; s.closed is already set, so it
		// exits quietly instead of mistaking this for peer death.
		s.ctrlConn.Close()
		s.livenessWG.Wait()
	}
	if s.sendPipe != nil {
		if err := s.sendPipe.close(unlink); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.recvPipe != nil {
		if err := s.recvPipe.close(unlink); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.shm != nil {
		if err := s.shm.close(unlink); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if s.abortR >= 0 {
		unix.Close(s.abortR)
	}
	if s.abortW >= 0 {
		unix.Close(s.abortW)
	}
	s.logger.infof("closed session %s unlink=%v", s.name, unlink)
	return firstErr
}

// IsClosed reports whether Close has been called.
func (s *Session) IsClosed() bool {
	return atomic.LoadInt32(&s.closed) != 0
}

// SetNonblock toggles non-blocking mode, per spec.md §4.D.3. It takes effect
// on the next Read/Write; no race with an outstanding blocking call is
// specified, matching spec.md's explicit "caller's responsibility".
func (s *Session) SetNonblock(nonblock bool) {
	if nonblock {
		atomic.StoreInt32(&s.nonblock, 1)
	} else {
		atomic.StoreInt32(&s.nonblock, 0)
	}
}

func (s *Session) isNonblock() bool {
	return atomic.LoadInt32(&s.nonblock) != 0
}

func (s *Session) isBroken() bool {
	return atomic.LoadInt32(&s.broken) != 0
}

func (s *Session) markBroken() {
	atomic.StoreInt32(&s.broken, 1)
}

// Name returns the session's name.
func (s *Session) Name() string { return s.name }

// Role returns whether this process is the Creator or the Attacher.
func (s *Session) Role() Role { return s.role }
