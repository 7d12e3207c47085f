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
	"net"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCtrlFrameRoundTrip(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		require.NoError(t, writeCtrlFrame(client, ctrlTypeHello, ctrlHello{Name: "n1", Capacity: 4096}))
	}()

	var hello ctrlHello
	msgType, err := readCtrlFrame(server, &hello)
	require.NoError(t, err)
	assert.Equal(t, ctrlTypeHello, msgType)
	assert.Equal(t, "n1", hello.Name)
	assert.Equal(t, uint32(4096), hello.Capacity)
	<-done
}

func TestCtrlFrameRejectsBadMagic(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	go func() {
		frame := encodeCtrlFrame(ctrlTypeHello, []byte("{}"))
		frame[4] = 0xFF // corrupt magic
		client.Write(frame)
	}()

	_, err := readCtrlFrame(server, nil)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestControlHandshakeEndToEnd(t *testing.T) {
	dir := t.TempDir()
	sockPath := filepath.Join(dir, "control.sock")

	ln, err := net.Listen("unix", sockPath)
	require.NoError(t, err)
	defer ln.Close()

	cfg := testConfig(t)
	accepted := make(chan *Session, 1)
	acceptErr := make(chan error, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			acceptErr <- err
			return
		}
		// controlAccept hands conn off to the session on success (it's
		// used as a peer-liveness signal for the session's lifetime), so
		// it must not be closed here too.
		sess, err := controlAccept(conn, cfg)
		if err != nil {
			conn.Close()
			acceptErr <- err
			return
		}
		accepted <- sess
	}()

	attacherCfg := *cfg
	clientSess, err := controlDial(sockPath, "control-demo", 4096, &attacherCfg)
	require.NoError(t, err)
	defer clientSess.Close()

	select {
	case sess := <-accepted:
		defer sess.Close()
		assert.Equal(t, "control-demo", sess.Name())
		assert.Equal(t, RoleCreator, sess.Role())
		assert.Equal(t, RoleAttacher, clientSess.Role())
	case err := <-acceptErr:
		t.Fatalf("accept side failed: %v", err)
	}
}

func TestControlDialRejectsBadName(t *testing.T) {
	// Dial validates the name before ever touching the network, so no
	// listener is needed for this case.
	_, err := Dial(filepath.Join(t.TempDir(), "control.sock"), "bad/name", 4096, testConfig(t))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}
