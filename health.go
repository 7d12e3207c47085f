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
	"fmt"
	"sync/atomic"

	"github.com/heptiolabs/healthcheck"
)

// NewHealthHandler builds a healthcheck.Handler wired to a SessionManager:
// liveness reports whether the manager itself is running, readiness
// reports whether every managed session currently has an unbroken
// connection, per SPEC_FULL.md §4.H. Grounded on the pack's
// srediag-plugin-shm adapter/health.go use of the same library for the
// same liveness/readiness split.
func NewHealthHandler(sm *SessionManager) healthcheck.Handler {
	handler := healthcheck.NewHandler()

	handler.AddLivenessCheck("session-manager-open", func() error {
		if atomic.LoadInt32(&sm.closed) != 0 {
			return fmt.Errorf("xipc: session manager closed")
		}
		return nil
	})

	handler.AddReadinessCheck("all-sessions-attached", func() error {
		for name, sess := range sm.sessions.Items() {
			if sess.IsClosed() || sess.isBroken() {
				return fmt.Errorf("xipc: session %s not attached", name)
			}
		}
		return nil
	})

	return handler
}
