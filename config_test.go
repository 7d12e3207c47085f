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

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, VerifyConfig(cfg))
}

func TestVerifyConfigRejectsNonPowerOfTwoCapacity(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RingCapacity = 100
	assert.ErrorIs(t, VerifyConfig(cfg), ErrInvalidArgument)
}

func TestVerifyConfigRejectsEmptyPrefix(t *testing.T) {
	cfg := DefaultConfig()
	cfg.PipeDirPrefix = ""
	assert.Error(t, VerifyConfig(cfg))
}

func TestVerifyConfigFillsDispatchPoolSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DispatchPoolSize = 0
	assert.NoError(t, VerifyConfig(cfg))
	assert.Equal(t, defaultDispatchPool, cfg.DispatchPoolSize)
}

func TestNewBackoffDefaultsWhenUnset(t *testing.T) {
	cfg := DefaultConfig()
	b := newBackoff(cfg)
	assert.NotNil(t, b)
	assert.NotEqual(t, backoff.Stop, b.NextBackOff())
}

func TestNewBackoffUsesConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backoff = backoff.NewConstantBackOff(0)
	assert.Equal(t, cfg.Backoff, newBackoff(cfg))
}
