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
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Config tunes a Session and the ambient infrastructure around it.
type Config struct {
	// RingCapacity is the byte capacity of each direction's ring buffer.
	// Must be a power of two, per spec.md §3.1.
	RingCapacity uint32

	// PipeDirPrefix is the directory+filename prefix used to derive the
	// shared memory object path and the two named pipe paths from a
	// session name, per SPEC_FULL.md §6.1.
	PipeDirPrefix string

	// HandshakeTimeout bounds how long the control-plane handshake
	// (component F) may take before a Dial or Accept gives up.
	HandshakeTimeout time.Duration

	// LogOutput controls where the internal logger writes.
	LogOutput io.Writer

	// Monitor is a metrics sink for callers to pass to RunMonitorLoop (see
	// monitor.go). Open, Listener and SessionManager do not read it, so
	// setting it alone starts no periodic emission.
	Monitor Monitor

	// MonitorPeriod is an emission period for callers to pass to
	// RunMonitorLoop. Open, Listener and SessionManager do not read it.
	MonitorPeriod time.Duration

	// Backoff configures the session manager's reconnect policy. Nil means
	// newBackoff's default exponential backoff.
	Backoff backoff.BackOff

	// DispatchPoolSize bounds the goroutine pool the Listener's accept loop
	// runs handshakes on (listener.go). The session manager's reconnect
	// loops run on their own goroutines and do not use this pool.
	DispatchPoolSize int

	// UnlinkOnClose controls whether a Creator's Close removes the shared
	// memory object and the two FIFOs. Only meaningful for RoleCreator.
	UnlinkOnClose bool
}

// DefaultConfig returns a Config with the package's recommended defaults.
func DefaultConfig() *Config {
	return &Config{
		RingCapacity:     defaultRingCapacity,
		PipeDirPrefix:    defaultPipeDirPrefix,
		HandshakeTimeout: defaultDialTimeout,
		LogOutput:        os.Stdout,
		MonitorPeriod:    30 * time.Second,
		DispatchPoolSize: defaultDispatchPool,
		UnlinkOnClose:    true,
	}
}

// VerifyConfig sanity-checks a Config before it's used to Open a session.
func VerifyConfig(config *Config) error {
	if config.RingCapacity < 2 {
		return fmt.Errorf("xipc: RingCapacity %d must be >= 2: %w", config.RingCapacity, ErrInvalidArgument)
	}
	if !isPowerOfTwo(config.RingCapacity) {
		return fmt.Errorf("xipc: RingCapacity %d must be a power of two: %w", config.RingCapacity, ErrInvalidArgument)
	}
	if config.PipeDirPrefix == "" {
		return errors.New("xipc: PipeDirPrefix could not be empty")
	}
	if config.DispatchPoolSize <= 0 {
		config.DispatchPoolSize = defaultDispatchPool
	}
	if runtime.GOOS != "linux" {
		return ErrOSNonSupported
	}
	return nil
}

func newBackoff(cfg *Config) backoff.BackOff {
	if cfg != nil && cfg.Backoff != nil {
		return cfg.Backoff
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 200 * time.Millisecond
	b.MaxInterval = sessionRebuildInterval
	b.MaxElapsedTime = 0 // retry forever; the caller controls lifetime via context cancellation.
	return b
}
