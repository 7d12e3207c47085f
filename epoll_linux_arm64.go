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
	"syscall"
	"unsafe"
)

// arm64 has no SYS_EPOLL_WAIT; the kernel only exposes epoll_pwait there,
// and its epoll_event struct carries 4 bytes of padding after `events`
// that x86/arm32 don't have.
type epollEvent struct {
	events uint32
	_      int32
	data   [8]byte
}

func epollCtl(epfd int, op int, fd int, event *epollEvent) (err error) {
	_, _, errCode := syscall.RawSyscall6(syscall.SYS_EPOLL_CTL, uintptr(epfd), uintptr(op), uintptr(fd),
		uintptr(unsafe.Pointer(event)), 0, 0)
	if errCode != syscall.Errno(0) {
		err = errCode
	}
	return err
}

func epollWait(epfd int, events []epollEvent, msec int) (n int, err error) {
	var n_ uintptr
	n_, _, errNo := syscall.Syscall6(syscall.SYS_EPOLL_PWAIT, uintptr(epfd), uintptr(unsafe.Pointer(&events[0])),
		uintptr(len(events)), uintptr(msec), 0, 0)
	if errNo == syscall.Errno(0) {
		err = nil
	} else {
		err = errNo
	}
	return int(n_), err
}
