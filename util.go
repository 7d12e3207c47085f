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
	"reflect"
	"runtime"
	"unicode"
	"unsafe"
)

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a < b {
		return b
	}
	return a
}

func string2bytesZeroCopy(s string) []byte {
	stringHeader := (*reflect.StringHeader)(unsafe.Pointer(&s))
	bh := reflect.SliceHeader{
		Data: stringHeader.Data,
		Len:  stringHeader.Len,
		Cap:  stringHeader.Len,
	}
	return *(*[]byte)(unsafe.Pointer(&bh))
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// delete only existing files
func safeRemoveFile(filename string) bool {
	fileInfo, err := os.Stat(filename)
	if err != nil {
		return false
	}
	if fileInfo.IsDir() {
		return false
	}
	if err := os.Remove(filename); err != nil {
		internalLogger.warnf("%s remove error %+v", filename, err)
		return false
	}
	return true
}

func isArmArch() bool {
	return runtime.GOARCH == "arm" || runtime.GOARCH == "arm64"
}

func isPowerOfTwo(v uint32) bool {
	return v != 0 && v&(v-1) == 0
}

// validateSessionName enforces spec.md §4.D.1's naming rule: non-empty,
// <=63 chars, printable, no path separators.
func validateSessionName(name string) error {
	if name == "" || len(name) > maxSessionNameLen {
		return ErrInvalidArgument
	}
	for _, r := range name {
		if r == '/' || r == '\\' || !unicode.IsPrint(r) {
			return ErrInvalidArgument
		}
	}
	return nil
}
