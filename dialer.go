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

// Dial runs the Attacher side of the control-plane handshake against a
// Listener's socket at controlAddr, then attaches to the resulting shared
// memory session. Grounded on the teacher's protocol_initializer.go
// clientInit flow (send descriptor, wait for ack, map memory) narrowed to
// the file-path mapping mode.
func Dial(controlAddr, name string, capacity uint32, config *Config) (*Session, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := validateSessionName(name); err != nil {
		return nil, err
	}
	return controlDial(controlAddr, name, capacity, config)
}
