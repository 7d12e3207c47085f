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

import "net"

// blockReadFull reads exactly len(data) bytes from conn, looping across
// short reads. Grounded on the teacher's block_io.go blockReadFull, adapted
// from a raw fd to a net.Conn since the control plane here rides an actual
// net.UnixConn rather than a syscall-level connFd.
func blockReadFull(conn net.Conn, data []byte) error {
	read := 0
	for read < len(data) {
		n, err := conn.Read(data[read:])
		read += n
		if err != nil {
			return err
		}
	}
	return nil
}

// blockWriteFull writes exactly len(data) bytes to conn, looping across
// short writes. Grounded on the teacher's block_io.go blockWriteFull.
func blockWriteFull(conn net.Conn, data []byte) error {
	written := 0
	for written < len(data) {
		n, err := conn.Write(data[written:])
		if err != nil {
			return err
		}
		written += n
	}
	return nil
}
