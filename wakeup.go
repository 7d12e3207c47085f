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
	"os"

	"golang.org/x/sys/unix"
)

// wakeupChannel wraps one named pipe used purely as a sleep/signal
// primitive, per SPEC_FULL.md §4.C. It carries no payload: a byte in the
// pipe means "something happened, re-check your indices".
type wakeupChannel struct {
	path    string
	readFd  int
	writeFd int
	owner   bool // true if this process created the FIFO inode
	broken  int32
}

// createWakeupPipe makes a new named pipe at path and opens both ends
// read-write non-blocking, exactly as spec.md §4.D.1/§9 require to avoid
// open-time blocking (opening a FIFO read-only blocks until a writer
// appears, and vice versa).
func createWakeupPipe(path string) (*wakeupChannel, error) {
	if pathExists(path) {
		if err := unix.Unlink(path); err != nil && !os.IsNotExist(err) {
			return nil, translateErrno(err)
		}
	}
	if err := unix.Mkfifo(path, 0600); err != nil {
		return nil, translateErrno(err)
	}
	return openWakeupPipe(path, true)
}

// openWakeupPipe opens an existing named pipe's read-write descriptor.
func openWakeupPipe(path string, owner bool) (*wakeupChannel, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NONBLOCK, 0600)
	if err != nil {
		return nil, translateErrno(err)
	}
	return &wakeupChannel{path: path, readFd: fd, writeFd: fd, owner: owner}, nil
}

// notify writes a single wakeup byte to the peer's end of this pipe.
// It never blocks: if the pipe is already pending a byte (EAGAIN) or the
// peer's read end is gone (EPIPE), notify swallows the former and reports
// the latter as a broken pipe so the caller can make BrokenPipe sticky.
func (w *wakeupChannel) notify() error {
	if w == nil {
		return nil
	}
	var buf [1]byte
	_, err := unix.Write(w.writeFd, buf[:])
	if err == nil {
		return nil
	}
	switch err {
	case unix.EAGAIN:
		return nil
	case unix.EPIPE:
		return ErrBrokenPipe
	default:
		return translateErrno(err)
	}
}

// wait blocks the calling goroutine (via the file descriptor's readiness)
// until at least one byte is available on this pipe, then drains up to
// waitDrainMax bytes and returns. It never returns a raw OS error for
// EAGAIN; the caller re-checks ring state after every return, per
// spec.md §9 "always re-check the indices after wait".
func (w *wakeupChannel) wait() error {
	return w.waitAbortable(-1)
}

// waitAbortable is wait, but also unblocks with ErrBrokenPipe as soon as
// abortFD (a Session's internal liveness self-pipe, see session.go) becomes
// readable. Pass -1 for abortFD to behave exactly like wait.
func (w *wakeupChannel) waitAbortable(abortFD int) error {
	var buf [waitDrainMax]byte
	for {
		n, err := unix.Read(w.readFd, buf[:])
		if err == nil {
			if n == 0 {
				// no writer holds the FIFO open: broken. Not reached while
				// this process holds its own O_RDWR descriptor on it.
				return ErrBrokenPipe
			}
			return nil
		}
		switch err {
		case unix.EAGAIN:
			if pollErr := waitReadable(w.readFd, abortFD); pollErr != nil {
				return pollErr
			}
			continue
		case unix.EINTR:
			return ErrInterrupted
		default:
			return translateErrno(err)
		}
	}
}

// readableFD returns the read end for external readiness multiplexers,
// per spec.md §4.E's event_fd.
func (w *wakeupChannel) readableFD() int {
	return w.readFd
}

func (w *wakeupChannel) close(unlink bool) error {
	err := unix.Close(w.readFd)
	if unlink && w.owner {
		_ = unix.Unlink(w.path)
	}
	return err
}

func translateErrno(err error) error {
	switch err {
	case unix.ENOENT:
		return ErrNotFound
	case unix.EEXIST:
		return ErrAlreadyExists
	case unix.EACCES, unix.EPERM:
		return ErrPermissionDenied
	case unix.ENOSPC, unix.ENOMEM, unix.EMFILE, unix.ENFILE:
		return ErrResourceExhausted
	case unix.EPIPE:
		return ErrBrokenPipe
	case unix.EINTR:
		return ErrInterrupted
	default:
		return err
	}
}
