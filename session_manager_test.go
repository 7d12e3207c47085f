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

type recordingCallback struct {
	accepted chan *Session
}

func (c *recordingCallback) OnAccept(s *Session)       { c.accepted <- s }
func (c *recordingCallback) OnAcceptError(err error)   {}
func (c *recordingCallback) OnShutdown(reason string)  {}

func TestSessionManagerDialsAllNames(t *testing.T) {
	dir := t.TempDir()
	controlPath := filepath.Join(dir, "control.sock")

	lnCfg := NewDefaultListenerConfig(controlPath)
	lnCfg.PipeDirPrefix = filepath.Join(dir, "xipc")
	cb := &recordingCallback{accepted: make(chan *Session, 4)}
	ln, err := NewListener(cb, lnCfg)
	require.NoError(t, err)
	defer ln.Close()
	go ln.Run()

	smCfg := DefaultSessionManagerConfig()
	smCfg.ControlAddr = controlPath
	smCfg.Names = []string{"sm-a", "sm-b"}
	smCfg.PipeDirPrefix = filepath.Join(dir, "xipc")
	smCfg.Capacity = 4096

	sm, err := NewSessionManager(smCfg)
	require.NoError(t, err)
	defer sm.Close()

	for i := 0; i < 2; i++ {
		select {
		case <-cb.accepted:
		case <-time.After(2 * time.Second):
			t.Fatal("listener did not accept a managed session in time")
		}
	}

	a, ok := sm.GetSession("sm-a")
	require.True(t, ok)
	assert.Equal(t, "sm-a", a.Name())

	b, ok := sm.GetSession("sm-b")
	require.True(t, ok)
	assert.Equal(t, "sm-b", b.Name())
}

func TestSessionManagerCloseStopsWatchers(t *testing.T) {
	dir := t.TempDir()
	controlPath := filepath.Join(dir, "control.sock")

	lnCfg := NewDefaultListenerConfig(controlPath)
	lnCfg.PipeDirPrefix = filepath.Join(dir, "xipc")
	cb := &recordingCallback{accepted: make(chan *Session, 1)}
	ln, err := NewListener(cb, lnCfg)
	require.NoError(t, err)
	defer ln.Close()
	go ln.Run()

	smCfg := DefaultSessionManagerConfig()
	smCfg.ControlAddr = controlPath
	smCfg.Names = []string{"sm-close"}
	smCfg.PipeDirPrefix = filepath.Join(dir, "xipc")

	sm, err := NewSessionManager(smCfg)
	require.NoError(t, err)

	select {
	case <-cb.accepted:
	case <-time.After(2 * time.Second):
		t.Fatal("listener did not accept in time")
	}

	assert.NoError(t, sm.Close())
	// closing twice must be a safe no-op; unlike Session.Close, the second
	// call reports no error.
	assert.NoError(t, sm.Close())
}
