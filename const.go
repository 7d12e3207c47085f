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

import "time"

const (
	// headerMagic is written into every session header, "XIPC" as big-endian uint32.
	headerMagic uint32 = 0x58495043
	// headerVersion is the only wire version this package understands.
	headerVersion uint32 = 1
)

// header field offsets, see SPEC_FULL.md §6.2 / §3.2.
const (
	offMagic      = 0
	offVersion    = 4
	offCapacity   = 8
	offDataOffset = 12
	offReadIdx    = 64
	offWriteIdx   = 128
	// headerSize is the size of the fixed header region, cache-line aligned
	// and large enough to keep read_idx and write_idx on separate lines.
	headerSize = 192
)

// Role identifies which side of a session a process plays.
type Role uint8

const (
	// RoleCreator provisions and owns the shared memory object and the two FIFOs.
	RoleCreator Role = iota
	// RoleAttacher only maps resources that a Creator already provisioned.
	RoleAttacher
)

func (r Role) String() string {
	if r == RoleCreator {
		return "creator"
	}
	return "attacher"
}

// OpenFlag controls Open's behaviour.
type OpenFlag uint32

const (
	// FlagCreate marks this peer as the Creator of the session's resources.
	FlagCreate OpenFlag = 1 << iota
	// FlagNonblock starts the session in non-blocking mode.
	FlagNonblock
)

const (
	defaultRingCapacity  = 4096
	defaultPipeDirPrefix = "/dev/shm/xipc"
	maxSessionNameLen    = 63

	// waitDrainMax is the number of bytes wait() will attempt to drain from
	// the wakeup pipe in one read, per SPEC_FULL.md's "drain a small batch"
	// rationale (§4.C).
	waitDrainMax = 8

	sessionRebuildInterval = time.Second * 60
	defaultDialTimeout     = 2 * time.Second
	defaultDispatchPool    = 64
)

// filesystem suffixes for the two named pipes, see SPEC_FULL.md §6.1.
const (
	pipeSuffixS2C = "_s2c"
	pipeSuffixC2S = "_c2s"
	shmSuffix     = "_shm"
)
