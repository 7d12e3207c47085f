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
	"encoding/binary"

	"golang.org/x/sys/unix"
)

// waitReadable blocks the calling goroutine until fd is readable, using a
// throwaway level-triggered epoll instance. It is what wakeupChannel.wait
// falls back to when a non-blocking read on the pipe returns EAGAIN.
//
// Level-triggered (no EPOLLET) is deliberate: spec.md §4.E.4 requires that
// an external multiplexer watching the same fd see readiness persist until
// the pending byte is drained, and reusing the identical epoll semantics
// here keeps this wait consistent with that contract instead of subtly
// different edge-triggered behavior.
//
// abortFD, when non-negative, is also registered: if it becomes readable
// first, waitReadable returns ErrBrokenPipe instead of waiting on fd forever.
// This is how a Session unblocks a parked Read/Write once its control-plane
// liveness watcher (session.go's watchPeerLiveness) detects the peer process
// is gone, per spec.md §8.3.5.
func waitReadable(fd int, abortFD int) error {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		return translateErrno(err)
	}
	defer unix.Close(epfd)

	ev := &epollEvent{events: unix.EPOLLIN}
	binary.LittleEndian.PutUint32(ev.data[0:4], uint32(fd))
	if err := epollCtl(epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return translateErrno(err)
	}
	if abortFD >= 0 {
		aev := &epollEvent{events: unix.EPOLLIN}
		binary.LittleEndian.PutUint32(aev.data[0:4], uint32(abortFD))
		if err := epollCtl(epfd, unix.EPOLL_CTL_ADD, abortFD, aev); err != nil {
			return translateErrno(err)
		}
	}

	var events [2]epollEvent
	for {
		n, err := epollWait(epfd, events[:], -1)
		if err != nil {
			if err == unix.EINTR {
				return ErrInterrupted
			}
			return translateErrno(err)
		}
		for i := 0; i < n; i++ {
			if abortFD >= 0 && int(binary.LittleEndian.Uint32(events[i].data[0:4])) == abortFD {
				return ErrBrokenPipe
			}
		}
		if n > 0 {
			return nil
		}
	}
}

// Poller exposes the readiness fd of a Session's wakeup pipe to external
// readiness multiplexers (spec.md §4.E.4 "an operating-system file
// descriptor usable with readiness-multiplexing facilities"). It is a thin,
// reusable wrapper a caller can register several event fds with, instead of
// hand-rolling epoll_create/epoll_ctl for every Session.
type Poller struct {
	epfd int
}

// NewPoller creates a fresh level-triggered epoll instance.
func NewPoller() (*Poller, error) {
	fd, err := unix.EpollCreate1(0)
	if err != nil {
		return nil, translateErrno(err)
	}
	return &Poller{epfd: fd}, nil
}

// Add registers fd for readability notifications.
func (p *Poller) Add(fd int) error {
	ev := &epollEvent{events: unix.EPOLLIN}
	binary.LittleEndian.PutUint32(ev.data[0:4], uint32(fd))
	return translateErrno(epollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev))
}

// Remove deregisters fd.
func (p *Poller) Remove(fd int) error {
	return translateErrno(epollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil))
}

// Wait blocks up to timeoutMillis (negative meaning forever) and returns the
// fds that became readable.
func (p *Poller) Wait(timeoutMillis int, out []int) (int, error) {
	events := make([]epollEvent, len(out))
	n, err := epollWait(p.epfd, events, timeoutMillis)
	if err != nil {
		if err == unix.EINTR {
			return 0, ErrInterrupted
		}
		return 0, translateErrno(err)
	}
	for i := 0; i < n; i++ {
		out[i] = int(binary.LittleEndian.Uint32(events[i].data[0:4]))
	}
	return n, nil
}

// Close releases the epoll instance.
func (p *Poller) Close() error {
	return unix.Close(p.epfd)
}
