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
	"net"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

// ListenCallback is the server's asynchronous accept API, grounded on the
// teacher's listener.go ListenCallback (renamed OnNewStream -> OnAccept
// since this package hands out whole Sessions, not multiplexed Streams).
type ListenCallback interface {
	// OnAccept is called once a peer has completed the control-plane
	// handshake and the session is ready for Read/Write.
	OnAccept(s *Session)
	// OnAcceptError is called when a handshake attempt failed after being
	// accepted at the socket layer; the listener keeps running.
	OnAcceptError(err error)
	// OnShutdown is called when the listener stops.
	OnShutdown(reason string)
}

// ListenerConfig configures a Listener's control-plane socket.
type ListenerConfig struct {
	*Config
	// ListenPath is the unix domain socket path peers Dial to reach this
	// listener's control plane, per SPEC_FULL.md §4.F.
	ListenPath string
}

// NewDefaultListenerConfig returns a ListenerConfig with recommended defaults.
func NewDefaultListenerConfig(listenPath string) *ListenerConfig {
	return &ListenerConfig{
		Config:     DefaultConfig(),
		ListenPath: listenPath,
	}
}

// Listener accepts control-plane connections, runs the Creator side of the
// handshake, and hands the resulting Session to a ListenCallback. Grounded
// on the teacher's listener.go Listener/Run/sessions shape; the hot-restart
// machinery is dropped (see DESIGN.md) since this package has no long-lived
// multiplexed wire connection to hand off across a re-exec.
type Listener struct {
	mu       sync.Mutex
	config   *ListenerConfig
	sessions *sessionSet
	ln       net.Listener
	logger   *logger
	callback ListenCallback
	pool     *ants.Pool
	closed   bool
	unlink   bool
}

// NewListener binds ListenPath and returns a Listener ready for Run.
func NewListener(callback ListenCallback, config *ListenerConfig) (*Listener, error) {
	if callback == nil {
		return nil, errors.New("xipc: ListenCallback couldn't be nil")
	}
	if runtime.GOOS != "linux" {
		return nil, ErrOSNonSupported
	}
	if config.Config == nil {
		config.Config = DefaultConfig()
	}
	if err := VerifyConfig(config.Config); err != nil {
		return nil, err
	}

	safeRemoveFile(config.ListenPath)
	ln, err := net.Listen("unix", config.ListenPath)
	if err != nil {
		return nil, fmt.Errorf("xipc: create listener failed: %w", err)
	}

	pool, err := ants.NewPool(config.DispatchPoolSize, ants.WithNonblocking(false))
	if err != nil {
		ln.Close()
		return nil, fmt.Errorf("xipc: create dispatch pool failed: %w", err)
	}

	return &Listener{
		config:   config,
		ln:       ln,
		sessions: newSessionSet(),
		logger:   newLogger("xipc:listener", config.LogOutput),
		callback: callback,
		pool:     pool,
		unlink:   true,
	}, nil
}

// Close stops accepting new connections, closes every accepted session and
// releases the dispatch pool.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.callback.OnShutdown("close by Listener.Close()")
	err := l.ln.Close()
	if l.unlink {
		os.Remove(l.config.ListenPath)
	}
	l.sessions.closeAll()
	l.pool.Release()
	return err
}

// Addr returns the listener's control-plane socket address.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// SetUnlinkOnClose sets whether Close removes the control-plane socket file.
func (l *Listener) SetUnlinkOnClose(unlink bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.unlink = unlink
}

// Run loops accepting control connections and dispatching the handshake to
// the pool, until Close is called or the socket errors out permanently.
func (l *Listener) Run() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			if strings.Contains(err.Error(), "too many open files") {
				time.Sleep(10 * time.Millisecond)
				continue
			}
			if strings.Contains(err.Error(), "use of closed network connection") {
				return nil
			}
			l.logger.errorf("accept failed: %s", err.Error())
			l.callback.OnShutdown("accept failed: " + err.Error())
			l.Close()
			return err
		}

		submitErr := l.pool.Submit(func() { l.handleConn(conn) })
		if submitErr != nil {
			l.logger.warnf("dispatch pool submit failed: %s", submitErr.Error())
			conn.Close()
		}
	}
}

func (l *Listener) handleConn(conn net.Conn) {
	// On success, controlAccept hands conn off to the session as a
	// peer-liveness signal (session.go's attachControlConn) and it must
	// stay open, so it's only closed here on the failure path.
	sess, err := controlAccept(conn, l.config.Config)
	if err != nil {
		conn.Close()
		l.callback.OnAcceptError(err)
		return
	}
	l.sessions.add(sess)
	l.callback.OnAccept(sess)
}

// sessionSet tracks sessions this Listener has handed out, for bulk Close.
// Grounded on the teacher's listener.go sessions type.
type sessionSet struct {
	mu   sync.Mutex
	data map[*Session]struct{}
}

func newSessionSet() *sessionSet {
	return &sessionSet{data: make(map[*Session]struct{}, 8)}
}

func (s *sessionSet) add(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		session.Close()
		return
	}
	s.data[session] = struct{}{}
}

func (s *sessionSet) closeAll() {
	s.mu.Lock()
	toClose := s.data
	s.data = nil
	s.mu.Unlock()
	for session := range toClose {
		session.Close()
	}
}
