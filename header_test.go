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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitAndMapRingHeader(t *testing.T) {
	buf := make([]byte, headerSize)
	h := initRingHeader(buf, 4096, headerSize)
	assert.NoError(t, h.verify())
	assert.Equal(t, uint32(4096), h.Capacity())
	assert.Equal(t, uint32(headerSize), h.DataOffset())
	assert.Equal(t, int64(0), h.loadRead(orderAcquire))
	assert.Equal(t, int64(0), h.loadWrite(orderAcquire))

	h2 := mapRingHeader(buf)
	assert.NoError(t, h2.verify())
	assert.Equal(t, uint32(4096), h2.Capacity())
}

func TestRingHeaderVerifyRejectsGarbage(t *testing.T) {
	buf := make([]byte, headerSize)
	h := mapRingHeader(buf)
	assert.ErrorIs(t, h.verify(), ErrMalformed)
}

func TestRingHeaderStoreLoad(t *testing.T) {
	buf := make([]byte, headerSize)
	h := initRingHeader(buf, 1024, headerSize)
	h.storeWrite(42)
	h.storeRead(10)
	assert.Equal(t, int64(42), h.loadWrite(orderRelaxed))
	assert.Equal(t, int64(10), h.loadRead(orderRelaxed))
}

func TestMapRingHeaderPanicsOnShortBuffer(t *testing.T) {
	assert.Panics(t, func() {
		mapRingHeader(make([]byte, headerSize-1))
	})
}
