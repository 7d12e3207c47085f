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

import "errors"

var (
	// ErrWouldBlock is returned by non-blocking Read/Write when no progress could be made.
	ErrWouldBlock = errors.New("xipc: operation would block")

	// ErrClosed is returned by any operation on a closed session or stream.
	ErrClosed = errors.New("xipc: session closed")

	// ErrBrokenPipe means the peer's end of a wakeup pipe is gone; the session is terminal.
	ErrBrokenPipe = errors.New("xipc: peer connection broken")

	// ErrInterrupted means wait() was interrupted by a signal and the caller should retry.
	ErrInterrupted = errors.New("xipc: interrupted")

	// ErrNotFound means Open without FlagCreate found no existing session resources.
	ErrNotFound = errors.New("xipc: session not found")

	// ErrAlreadyExists means Open with FlagCreate raced another Creator for the same name.
	ErrAlreadyExists = errors.New("xipc: session already exists")

	// ErrMalformed means the shared header failed its magic/version check.
	ErrMalformed = errors.New("xipc: malformed session header")

	// ErrInvalidArgument covers bad names, non-power-of-two capacities, and similar.
	ErrInvalidArgument = errors.New("xipc: invalid argument")

	// ErrPermissionDenied is returned when the OS denies access to session resources.
	ErrPermissionDenied = errors.New("xipc: permission denied")

	// ErrResourceExhausted is returned when the OS cannot provide the requested resources.
	ErrResourceExhausted = errors.New("xipc: resource exhausted")

	// ErrOSNonSupported means the host OS lacks the primitives this package needs (Linux only).
	ErrOSNonSupported = errors.New("xipc: only supports linux OS")

	// ErrQueueFull's text is logged by SessionManager when its ready backlog
	// cannot take a reconnected session; no function returns it.
	ErrQueueFull = errors.New("xipc: pending accept backlog is full")

	// ErrHandshakeTimeout means the control-plane handshake did not complete in time.
	ErrHandshakeTimeout = errors.New("xipc: handshake timeout")
)
