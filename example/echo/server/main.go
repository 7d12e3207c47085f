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

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/supermanc88/xipc"
)

type echoCallback struct{}

func (echoCallback) OnAccept(s *xipc.Session) {
	fmt.Println("accepted session:", s.Name())
	go func() {
		buf := make([]byte, 4096)
		for {
			n, err := s.Read(buf)
			if err != nil {
				fmt.Println("session", s.Name(), "closed:", err)
				return
			}
			if _, err := s.Write(buf[:n]); err != nil {
				fmt.Println("session", s.Name(), "write failed:", err)
				return
			}
		}
	}()
}

func (echoCallback) OnAcceptError(err error) {
	fmt.Println("accept error:", err)
}

func (echoCallback) OnShutdown(reason string) {
	fmt.Println("listener shutdown:", reason)
}

func main() {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	controlPath := filepath.Join(dir, "echo.sock")

	cfg := xipc.NewDefaultListenerConfig(controlPath)
	ln, err := xipc.NewListener(echoCallback{}, cfg)
	if err != nil {
		panic("create listener failed: " + err.Error())
	}
	defer ln.Close()

	fmt.Println("listening on", controlPath)
	if err := ln.Run(); err != nil {
		panic("listener run failed: " + err.Error())
	}
}
