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
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
	"golang.org/x/sys/unix"
)

// shmSegment is the mapped shared memory object backing a full-duplex
// session: two rings (one per direction), each with its own header region
// and data region, laid out back to back in a single mapping, per
// SPEC_FULL.md §2 "Implementations MAY layout both rings in one SHM
// segment".
type shmSegment struct {
	path  string
	mem   []byte
	owner bool
}

// ringSize is the total bytes one direction's header+data occupies.
func ringSize(capacity uint32) int {
	return headerSize + int(capacity)
}

// createShm provisions a new shared memory object sized for two rings of
// the given capacity, per spec.md §4.D.1 Creator steps 1-2.
func createShm(path string, capacity uint32) (*shmSegment, error) {
	if pathExists(path) {
		return nil, ErrAlreadyExists
	}
	size := ringSize(capacity) * 2
	if !canCreateOnDevShm(uint64(size), path) {
		return nil, fmt.Errorf("xipc: %w, path=%s size=%d", ErrResourceExhausted, path, size)
	}
	_ = os.MkdirAll(filepath.Dir(path), 0700)
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0600)
	if err != nil {
		return nil, translateErrno(err)
	}
	defer unix.Close(fd)

	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		_ = unix.Unlink(path)
		return nil, fmt.Errorf("xipc: ftruncate shared memory failed: %w", translateErrno(err))
	}
	mem, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Unlink(path)
		return nil, translateErrno(err)
	}
	return &shmSegment{path: path, mem: mem, owner: true}, nil
}

// openShm maps an existing shared memory object, per spec.md §4.D.1
// Attacher steps 1-2.
func openShm(path string) (*shmSegment, error) {
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, translateErrno(err)
	}
	defer unix.Close(fd)

	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return nil, translateErrno(err)
	}
	mem, err := unix.Mmap(fd, 0, int(st.Size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, translateErrno(err)
	}
	return &shmSegment{path: path, mem: mem, owner: false}, nil
}

func (s *shmSegment) ringBytes(index int, capacity uint32) []byte {
	sz := ringSize(capacity)
	return s.mem[index*sz : (index+1)*sz]
}

func (s *shmSegment) close(unlink bool) error {
	err := unix.Munmap(s.mem)
	if unlink && s.owner {
		if rmErr := os.Remove(s.path); rmErr != nil && !os.IsNotExist(rmErr) {
			internalLogger.warnf("shm: remove %s failed: %s", s.path, rmErr.Error())
		} else {
			internalLogger.infof("shm: removed %s", s.path)
		}
	}
	return err
}

// canCreateOnDevShm mirrors the teacher's util.go preflight check: mmap'ing
// into tmpfs with insufficient free space doesn't fail at mmap time, it
// crashes the process with SIGBUS on first touch of the missing pages.
func canCreateOnDevShm(size uint64, path string) bool {
	if runtime.GOOS == "linux" && strings.Contains(path, "/dev/shm") {
		stat, err := disk.Usage("/dev/shm")
		if err != nil {
			internalLogger.warnf("xipc: could not stat /dev/shm free size: %s", err.Error())
			return false
		}
		return stat.Free >= size
	}
	return true
}
