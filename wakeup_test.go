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

func TestCreateWakeupPipeNotifyWait(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wake")

	w, err := createWakeupPipe(path)
	require.NoError(t, err)
	defer w.close(true)

	assert.NoError(t, w.notify())
	assert.NoError(t, w.wait())
}

func TestCreateWakeupPipeUnlinksStale(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wake")

	w1, err := createWakeupPipe(path)
	require.NoError(t, err)
	w1.close(false)

	w2, err := createWakeupPipe(path)
	require.NoError(t, err)
	defer w2.close(true)
	assert.NoError(t, w2.notify())
}

func TestWakeupChannelBlocksUntilNotify(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wake")

	owner, err := createWakeupPipe(path)
	require.NoError(t, err)
	defer owner.close(true)

	peer, err := openWakeupPipe(path, false)
	require.NoError(t, err)
	defer peer.close(false)

	done := make(chan error, 1)
	go func() {
		done <- peer.wait()
	}()

	select {
	case <-done:
		t.Fatal("wait returned before notify")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, owner.notify())
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not wake up within timeout")
	}
}

func TestWakeupChannelReadableFD(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wake")

	owner, err := createWakeupPipe(path)
	require.NoError(t, err)
	defer owner.close(true)

	// opened O_RDWR: the readable fd for external multiplexers is the same
	// fd notify() writes through, since one FIFO carries traffic both ways.
	assert.Equal(t, owner.readFd, owner.writeFd)
	assert.Equal(t, owner.readFd, owner.readableFD())
}
