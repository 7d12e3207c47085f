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
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"time"
)

// The control plane is deliberately not part of spec.md's core (§1 calls
// it a boundary concern): a Creator listens on a unix domain socket and an
// Attacher dials it once to learn (or agree on) the session's name,
// capacity and confirm the two peers' roles, before either side ever
// touches the shared memory or the FIFOs. This is grounded on the
// teacher's protocol_initializer.go/protocol_event.go framing shape
// (length-prefixed header + magic + version + typed payload) but is far
// smaller: one request, one response, no protocol version negotiation, no
// memfd handoff (this package only supports the /dev/shm file-path mapping
// mode, spec.md's only Non-goal-compliant mode).
const (
	ctrlMagic   uint16 = 0x5849 // "XI"
	ctrlVersion uint8  = 1

	ctrlTypeHello uint8 = 1
	ctrlTypeAck   uint8 = 2
	ctrlTypeError uint8 = 3

	// ctrlHeaderSize is length(4) + magic(2) + version(1) + type(1).
	ctrlHeaderSize = 8
	ctrlMaxBody    = 4096
)

type ctrlHello struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
}

type ctrlAck struct {
	Name     string `json:"name"`
	Capacity uint32 `json:"capacity"`
}

type ctrlError struct {
	Message string `json:"message"`
}

func encodeCtrlFrame(msgType uint8, body []byte) []byte {
	frame := make([]byte, ctrlHeaderSize+len(body))
	binary.BigEndian.PutUint32(frame[0:4], uint32(len(body)))
	binary.BigEndian.PutUint16(frame[4:6], ctrlMagic)
	frame[6] = ctrlVersion
	frame[7] = msgType
	copy(frame[ctrlHeaderSize:], body)
	return frame
}

func writeCtrlFrame(conn net.Conn, msgType uint8, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("xipc: control: marshal frame: %w", err)
	}
	return blockWriteFull(conn, encodeCtrlFrame(msgType, body))
}

// readCtrlFrameRaw reads one length-prefixed control frame and returns its
// type and raw body, without interpreting the body.
func readCtrlFrameRaw(conn net.Conn) (msgType uint8, body []byte, err error) {
	hdr := make([]byte, ctrlHeaderSize)
	if err := blockReadFull(conn, hdr); err != nil {
		return 0, nil, fmt.Errorf("xipc: control: read header: %w", err)
	}
	length := binary.BigEndian.Uint32(hdr[0:4])
	magic := binary.BigEndian.Uint16(hdr[4:6])
	version := hdr[6]
	msgType = hdr[7]
	if magic != ctrlMagic || version != ctrlVersion {
		return 0, nil, fmt.Errorf("xipc: control: %w (magic=%x version=%d)", ErrMalformed, magic, version)
	}
	if length > ctrlMaxBody {
		return 0, nil, fmt.Errorf("xipc: control: body too large (%d): %w", length, ErrMalformed)
	}
	if length == 0 {
		return msgType, nil, nil
	}
	body = make([]byte, length)
	if err := blockReadFull(conn, body); err != nil {
		return 0, nil, fmt.Errorf("xipc: control: read body: %w", err)
	}
	return msgType, body, nil
}

// readCtrlFrame reads one length-prefixed control frame and unmarshals its
// JSON body into out (out may be nil for frames without a body).
func readCtrlFrame(conn net.Conn, out interface{}) (msgType uint8, err error) {
	msgType, body, err := readCtrlFrameRaw(conn)
	if err != nil {
		return 0, err
	}
	if out != nil && len(body) > 0 {
		if err := json.Unmarshal(body, out); err != nil {
			return 0, fmt.Errorf("xipc: control: unmarshal body: %w", err)
		}
	}
	return msgType, nil
}

// controlAccept runs the Creator side of one handshake over an already
// accepted control connection: it reads the Attacher's ctrlHello, opens
// the session as RoleCreator, and acks with the final name/capacity. An
// existing session of the same name is not reused: Open fails with
// ErrAlreadyExists and the Attacher receives an error frame.
func controlAccept(conn net.Conn, config *Config) (*Session, error) {
	conn.SetDeadline(time.Now().Add(config.HandshakeTimeout))
	defer conn.SetDeadline(time.Time{})

	var hello ctrlHello
	msgType, err := readCtrlFrame(conn, &hello)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("xipc: control: hello: %w", ErrHandshakeTimeout)
		}
		return nil, err
	}
	if msgType != ctrlTypeHello {
		return nil, writeCtrlError(conn, fmt.Errorf("xipc: control: expected hello, got type %d", msgType))
	}
	if err := validateSessionName(hello.Name); err != nil {
		return nil, writeCtrlError(conn, err)
	}
	capacity := hello.Capacity
	if capacity == 0 {
		capacity = config.RingCapacity
	}

	sess, err := Open(hello.Name, capacity, FlagCreate, config)
	if err != nil {
		return nil, writeCtrlError(conn, err)
	}
	if err := writeCtrlFrame(conn, ctrlTypeAck, ctrlAck{Name: hello.Name, Capacity: capacity}); err != nil {
		sess.Close()
		return nil, err
	}
	// The connection is kept open (not closed here) so the session can use
	// it as a peer-liveness signal for the rest of its life; see
	// session.go's attachControlConn/watchPeerLiveness and spec.md §8.3.5.
	sess.attachControlConn(conn)
	return sess, nil
}

// controlDial runs the Attacher side of one handshake: it connects to the
// Creator's control socket, sends the desired name/capacity, waits for the
// ack, and only then attaches to the shared memory and FIFOs the ack
// confirms exist (the happens-before edge that resolves spec.md §9's
// header-publication race, see header.go).
func controlDial(controlAddr string, name string, capacity uint32, config *Config) (*Session, error) {
	conn, err := net.DialTimeout("unix", controlAddr, config.HandshakeTimeout)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, fmt.Errorf("xipc: control: dial %s: %w", controlAddr, ErrHandshakeTimeout)
		}
		return nil, fmt.Errorf("xipc: control: dial %s: %w", controlAddr, err)
	}

	conn.SetDeadline(time.Now().Add(config.HandshakeTimeout))
	if err := writeCtrlFrame(conn, ctrlTypeHello, ctrlHello{Name: name, Capacity: capacity}); err != nil {
		conn.Close()
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, fmt.Errorf("xipc: control: hello %s: %w", name, ErrHandshakeTimeout)
		}
		return nil, err
	}
	msgType, body, err := readCtrlFrameRaw(conn)
	if err != nil {
		conn.Close()
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, fmt.Errorf("xipc: control: ack %s: %w", name, ErrHandshakeTimeout)
		}
		return nil, err
	}
	conn.SetDeadline(time.Time{})
	switch msgType {
	case ctrlTypeAck:
		var ack ctrlAck
		if err := json.Unmarshal(body, &ack); err != nil {
			conn.Close()
			return nil, fmt.Errorf("xipc: control: unmarshal ack: %w", err)
		}
		sess, err := Open(ack.Name, 0, 0, config)
		if err != nil {
			conn.Close()
			return nil, err
		}
		// Kept open for the session's lifetime as a peer-liveness signal,
		// mirroring controlAccept; see spec.md §8.3.5.
		sess.attachControlConn(conn)
		return sess, nil
	case ctrlTypeError:
		conn.Close()
		var ce ctrlError
		if err := json.Unmarshal(body, &ce); err == nil && ce.Message != "" {
			return nil, fmt.Errorf("xipc: control: peer rejected handshake: %s", ce.Message)
		}
		return nil, fmt.Errorf("xipc: control: peer rejected handshake")
	default:
		conn.Close()
		return nil, fmt.Errorf("xipc: control: unexpected reply type %d", msgType)
	}
}

func writeCtrlError(conn net.Conn, cause error) error {
	_ = writeCtrlFrame(conn, ctrlTypeError, ctrlError{Message: cause.Error()})
	return cause
}
