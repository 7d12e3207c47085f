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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMaxInt(t *testing.T) {
	assert.Equal(t, 1, minInt(1, 2))
	assert.Equal(t, 2, minInt(2, 2))
	assert.Equal(t, 2, maxInt(1, 2))
	assert.Equal(t, 2, maxInt(2, 2))
}

func TestString2BytesZeroCopy(t *testing.T) {
	s := "hello xipc"
	b := string2bytesZeroCopy(s)
	assert.Equal(t, []byte(s), b)
}

func TestPathExists(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "exists")
	assert.False(t, pathExists(p))
	assert.NoError(t, os.WriteFile(p, []byte("x"), 0600))
	assert.True(t, pathExists(p))
}

func TestSafeRemoveFile(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "f")
	assert.False(t, safeRemoveFile(p))
	assert.NoError(t, os.WriteFile(p, []byte("x"), 0600))
	assert.True(t, safeRemoveFile(p))
	assert.False(t, pathExists(p))

	assert.False(t, safeRemoveFile(dir))
}

func TestIsPowerOfTwo(t *testing.T) {
	assert.True(t, isPowerOfTwo(1))
	assert.True(t, isPowerOfTwo(2))
	assert.True(t, isPowerOfTwo(4096))
	assert.False(t, isPowerOfTwo(0))
	assert.False(t, isPowerOfTwo(3))
	assert.False(t, isPowerOfTwo(4095))
}

func TestValidateSessionName(t *testing.T) {
	assert.NoError(t, validateSessionName("my-session_1"))
	assert.ErrorIs(t, validateSessionName(""), ErrInvalidArgument)
	assert.ErrorIs(t, validateSessionName("a/b"), ErrInvalidArgument)
	assert.ErrorIs(t, validateSessionName("a\\b"), ErrInvalidArgument)

	long := make([]byte, maxSessionNameLen+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, validateSessionName(string(long)), ErrInvalidArgument)
}
