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
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Workiva/go-datastructures/queue"
	"github.com/cenkalti/backoff/v4"
	cmap "github.com/orcaman/concurrent-map/v2"
)

// SessionManager keeps a fixed set of named sessions attached to a single
// control-plane address alive, redialing with backoff whenever a session's
// wakeup pipe reports broken. Grounded on the teacher's session_manager.go
// SessionManager/streamPool background-rebuild loop, narrowed from a
// stream-multiplexing pool to a flat named-session registry (this package
// has no stream layer above Session to pool).
type SessionManager struct {
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup

	controlAddr string
	config      *SessionManagerConfig
	sessions    cmap.ConcurrentMap[string, *Session]

	// ready backlogs sessions that the watch loop just reconnected, for a
	// puller-style consumer via Next(); sessions dialed by NewSessionManager
	// are not queued. It uses the same bounded ring buffer the teacher's
	// pack uses for backpressure-aware queues (see DESIGN.md).
	ready *queue.RingBuffer

	closed int32
}

// SessionManagerConfig configures a SessionManager.
type SessionManagerConfig struct {
	*Config
	// ControlAddr is the Listener's control-plane socket to dial.
	ControlAddr string
	// Names are the session names this manager keeps attached.
	Names []string
	// Capacity is the ring capacity requested for each managed session.
	Capacity uint32
	// ReadyQueueSize bounds the backlog of not-yet-consumed ready events.
	ReadyQueueSize uint64
}

// DefaultSessionManagerConfig returns a SessionManagerConfig with the
// package's recommended defaults.
func DefaultSessionManagerConfig() *SessionManagerConfig {
	return &SessionManagerConfig{
		Config:         DefaultConfig(),
		Capacity:       defaultRingCapacity,
		ReadyQueueSize: 64,
	}
}

// NewSessionManager dials every configured name once, then starts a
// background reconnect loop that redials with exponential backoff whenever
// a session breaks.
func NewSessionManager(config *SessionManagerConfig) (*SessionManager, error) {
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	if err := VerifyConfig(config.Config); err != nil {
		return nil, err
	}
	if config.ReadyQueueSize == 0 {
		config.ReadyQueueSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())
	sm := &SessionManager{
		ctx:         ctx,
		cancelFunc:  cancel,
		controlAddr: config.ControlAddr,
		config:      config,
		sessions:    cmap.New[*Session](),
		ready:       queue.NewRingBuffer(config.ReadyQueueSize),
	}

	for _, name := range config.Names {
		sess, err := Dial(config.ControlAddr, name, config.Capacity, config.Config)
		if err != nil {
			sm.Close()
			return nil, err
		}
		sm.sessions.Set(name, sess)
		sm.wg.Add(1)
		go sm.watch(name)
	}
	return sm, nil
}

// GetSession returns the currently attached session for name, if any.
func (sm *SessionManager) GetSession(name string) (*Session, bool) {
	return sm.sessions.Get(name)
}

// Next blocks until a session has been reconnected by the watch loop and
// returns it, or returns an error if the manager is closed. The sessions
// dialed by NewSessionManager are not delivered here. Consumers that want
// to react to reconnects (rather than poll GetSession) should use this.
func (sm *SessionManager) Next() (*Session, error) {
	v, err := sm.ready.Poll(0)
	if err != nil {
		return nil, err
	}
	sess, _ := v.(*Session)
	if sess == nil {
		return nil, ErrClosed
	}
	return sess, nil
}

// Close stops all reconnect loops and closes every managed session.
func (sm *SessionManager) Close() error {
	if !atomic.CompareAndSwapInt32(&sm.closed, 0, 1) {
		return nil
	}
	sm.cancelFunc()
	sm.ready.Dispose()
	sm.wg.Wait()
	for name, sess := range sm.sessions.Items() {
		sess.Close()
		sm.sessions.Remove(name)
	}
	return nil
}

// watch polls one managed session for brokenness and redials it with
// backoff on failure, per SPEC_FULL.md §4.G.
func (sm *SessionManager) watch(name string) {
	defer sm.wg.Done()
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-sm.ctx.Done():
			return
		case <-ticker.C:
			sess, ok := sm.sessions.Get(name)
			if !ok || sess.IsClosed() || sess.isBroken() {
				sm.reconnect(name)
			}
		}
	}
}

func (sm *SessionManager) reconnect(name string) {
	b := backoff.WithContext(newBackoff(sm.config.Config), sm.ctx)
	_ = backoff.Retry(func() error {
		if sm.ctx.Err() != nil {
			return backoff.Permanent(sm.ctx.Err())
		}
		sess, err := Dial(sm.controlAddr, name, sm.config.Capacity, sm.config.Config)
		if err != nil {
			atomic.AddUint64(&globalReconnectStats.errorCount, 1)
			internalLogger.warnf("xipc: session manager reconnect %s failed: %s", name, err.Error())
			return err
		}
		if old, ok := sm.sessions.Get(name); ok {
			old.Close()
		}
		sm.sessions.Set(name, sess)
		atomic.AddUint64(&globalReconnectStats.successCount, 1)
		offered, err := sm.ready.Offer(sess)
		if err != nil {
			internalLogger.warnf("xipc: session manager ready queue closed while offering %s", name)
		} else if !offered {
			internalLogger.warnf("xipc: %s: %s", name, ErrQueueFull.Error())
		}
		return nil
	}, b)
}

var globalReconnectStats struct {
	successCount uint64
	errorCount   uint64
}
