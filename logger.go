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
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"
)

type logger struct {
	name      string
	out       io.Writer
	callDepth int
}

var (
	internalLogger = &logger{"", os.Stdout, 3}

	logLevel int

	magenta = string([]byte{27, 91, 57, 53, 109})
	green   = string([]byte{27, 91, 57, 50, 109})
	blue    = string([]byte{27, 91, 57, 52, 109})
	yellow  = string([]byte{27, 91, 57, 51, 109})
	red     = string([]byte{27, 91, 57, 49, 109})
	reset   = string([]byte{27, 91, 48, 109})

	levelColor = []string{magenta, green, blue, yellow, red}
	levelName  = []string{"Trace", "Debug", "Info", "Warn", "Error"}
)

const (
	levelTrace = iota
	levelDebug
	levelInfo
	levelWarn
	levelError
	levelNoPrint
)

func init() {
	logLevel = levelWarn
	if v := os.Getenv("XIPC_LOG_LEVEL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n <= levelNoPrint {
			logLevel = n
		}
	}
}

// SetLogLevel changes the internal logger's level. The default is Warn.
// The process env var XIPC_LOG_LEVEL overrides the default at init time.
func SetLogLevel(l int) {
	if l <= levelNoPrint {
		logLevel = l
	}
}

func newLogger(name string, out io.Writer) *logger {
	if out == nil {
		out = os.Stdout
	}
	return &logger{name: name, out: out, callDepth: 3}
}

func (l *logger) prefix(lvl int) string {
	_, file, line, ok := runtime.Caller(l.callDepth)
	if !ok {
		file, line = "???", 0
	}
	now := time.Now().Format("2006-01-02 15:04:05.000")
	if l.name != "" {
		return fmt.Sprintf("%s[%s][%s][%s][%s:%d] ", levelColor[lvl], now, l.name, levelName[lvl], filepath.Base(file), line)
	}
	return fmt.Sprintf("%s[%s][%s][%s:%d] ", levelColor[lvl], now, levelName[lvl], filepath.Base(file), line)
}

func (l *logger) errorf(format string, a ...interface{}) {
	if logLevel > levelError {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelError)+format+reset+"\n", a...)
}

func (l *logger) warnf(format string, a ...interface{}) {
	if logLevel > levelWarn {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelWarn)+format+reset+"\n", a...)
}

func (l *logger) infof(format string, a ...interface{}) {
	if logLevel > levelInfo {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelInfo)+format+reset+"\n", a...)
}

func (l *logger) debugf(format string, a ...interface{}) {
	if logLevel > levelDebug {
		return
	}
	fmt.Fprintf(l.out, l.prefix(levelDebug)+format+reset+"\n", a...)
}
