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
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupLivenessPair wires up a real Listener+Dial handshake (rather than
// bare Open) so both sessions have a live control-plane connection for
// session.go's watchPeerLiveness to watch, per spec.md §8.3.5.
func setupLivenessPair(t *testing.T, name string, capacity uint32) (creatorSess, attacherSess *Session, ln *Listener) {
	t.Helper()
	dir := t.TempDir()
	controlPath := filepath.Join(dir, "control.sock")

	lnCfg := NewDefaultListenerConfig(controlPath)
	lnCfg.PipeDirPrefix = filepath.Join(dir, "xipc")
	lnCfg.RingCapacity = capacity
	cb := &recordingCallback{accepted: make(chan *Session, 1)}
	ln, err := NewListener(cb, lnCfg)
	require.NoError(t, err)
	go ln.Run()

	dialCfg := DefaultConfig()
	dialCfg.PipeDirPrefix = lnCfg.PipeDirPrefix
	dialCfg.RingCapacity = capacity

	attacherSess, err = Dial(controlPath, name, capacity, dialCfg)
	require.NoError(t, err)

	select {
	case creatorSess = <-cb.accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not accept in time")
	}
	return creatorSess, attacherSess, ln
}

// TestPeerDeathUnblocksBlockingWrite covers spec.md §8.3.5: a producer
// blocked in Write because its ring is full must surface ErrBrokenPipe once
// the consumer process is gone, rather than hang forever. Killing the
// consumer is simulated by closing its Session, which closes its end of
// the control-plane connection kept alive by session.go's
// attachControlConn/watchPeerLiveness.
func TestPeerDeathUnblocksBlockingWrite(t *testing.T) {
	creatorSess, attacherSess, ln := setupLivenessPair(t, "peer-death-write", 16)
	defer ln.Close()
	defer attacherSess.Close()

	filler := make([]byte, 16)
	n, err := attacherSess.Write(filler)
	require.NoError(t, err)
	require.Equal(t, 16, n)

	writeDone := make(chan error, 1)
	go func() {
		_, err := attacherSess.Write([]byte("more data than fits"))
		writeDone <- err
	}()

	// give the writer time to actually park in recvPipe.wait before killing
	// the peer, so this exercises the wakeup path rather than a race.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, creatorSess.Close())

	select {
	case err := <-writeDone:
		assert.ErrorIs(t, err, ErrBrokenPipe)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Write did not unblock after peer death")
	}
	assert.True(t, attacherSess.isBroken())
}

// TestPeerDeathUnblocksBlockingRead is the read-side counterpart: a
// consumer blocked in Read on an empty ring must also surface ErrBrokenPipe
// once the producer process is gone.
func TestPeerDeathUnblocksBlockingRead(t *testing.T) {
	creatorSess, attacherSess, ln := setupLivenessPair(t, "peer-death-read", 16)
	defer ln.Close()
	defer attacherSess.Close()

	readDone := make(chan error, 1)
	go func() {
		buf := make([]byte, 8)
		_, err := attacherSess.Read(buf)
		readDone <- err
	}()

	time.Sleep(50 * time.Millisecond)
	require.NoError(t, creatorSess.Close())

	select {
	case err := <-readDone:
		assert.ErrorIs(t, err, ErrBrokenPipe)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Read did not unblock after peer death")
	}
	assert.True(t, attacherSess.isBroken())
}
