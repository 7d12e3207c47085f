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

func main() {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	controlPath := filepath.Join(dir, "echo.sock")

	sess, err := xipc.Dial(controlPath, "echo-demo", 0, xipc.DefaultConfig())
	if err != nil {
		panic("dial failed: " + err.Error())
	}
	defer sess.Close()

	msg := "client says hello over shared memory"
	if _, err := sess.Write([]byte(msg)); err != nil {
		panic("write failed: " + err.Error())
	}
	fmt.Println("client sent:", msg)

	echoed, err := sess.ReadBytes(len(msg))
	if err != nil {
		panic("read failed: " + err.Error())
	}
	fmt.Println("client received:", string(echoed))
}
