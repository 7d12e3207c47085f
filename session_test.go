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

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.PipeDirPrefix = filepath.Join(t.TempDir(), "xipc")
	cfg.RingCapacity = 4096
	cfg.UnlinkOnClose = true
	return cfg
}

func openTestPair(t *testing.T, name string) (creator, attacher *Session) {
	t.Helper()
	cfg := testConfig(t)

	creator, err := Open(name, cfg.RingCapacity, FlagCreate, cfg)
	require.NoError(t, err)

	attacherCfg := *cfg
	attacher, err = Open(name, 0, 0, &attacherCfg)
	require.NoError(t, err)

	t.Cleanup(func() {
		attacher.Close()
		creator.Close()
	})
	return creator, attacher
}

func TestOpenRejectsInvalidName(t *testing.T) {
	_, err := Open("bad/name", 4096, FlagCreate, testConfig(t))
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestOpenCreatorThenAttacher(t *testing.T) {
	creator, attacher := openTestPair(t, "session-a")
	assert.Equal(t, RoleCreator, creator.Role())
	assert.Equal(t, RoleAttacher, attacher.Role())
	assert.Equal(t, "session-a", creator.Name())
	assert.False(t, creator.IsClosed())
	assert.False(t, attacher.IsClosed())
}

func TestOpenCreateTwiceFails(t *testing.T) {
	cfg := testConfig(t)
	first, err := Open("dup", cfg.RingCapacity, FlagCreate, cfg)
	require.NoError(t, err)
	defer first.Close()

	_, err = Open("dup", cfg.RingCapacity, FlagCreate, cfg)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestOpenAttacherWithoutCreatorFails(t *testing.T) {
	cfg := testConfig(t)
	_, err := Open("missing", 0, 0, cfg)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSessionCloseIsIdempotent(t *testing.T) {
	creator, _ := openTestPair(t, "session-close")
	assert.NoError(t, creator.Close())
	assert.True(t, creator.IsClosed())
	assert.ErrorIs(t, creator.Close(), ErrClosed)
}

func TestSetNonblock(t *testing.T) {
	creator, _ := openTestPair(t, "session-nb")
	assert.False(t, creator.isNonblock())
	creator.SetNonblock(true)
	assert.True(t, creator.isNonblock())
	creator.SetNonblock(false)
	assert.False(t, creator.isNonblock())
}
