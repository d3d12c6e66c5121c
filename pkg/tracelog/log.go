// Copyright © 2019 mg
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package tracelog is a minimal leveled logger used throughout tracedbg.
// Callers install their own Logger with SetLogger; the default is silent.
package tracelog

import (
	"fmt"
	"os"
)

// Logger receives leveled log lines from the core packages.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type stdLogger struct {
	debug bool
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "INFO "+format+"\n", args...)
}

func (l *stdLogger) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "WARN "+format+"\n", args...)
}

func (l *stdLogger) Debugf(format string, args ...interface{}) {
	if !l.debug {
		return
	}
	fmt.Fprintf(os.Stderr, "DEBUG "+format+"\n", args...)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Debugf(string, ...interface{}) {}

var (
	defaultImpl Logger = nopLogger{}
	logger      Logger = defaultImpl
)

// SetLogger installs impl as the package-wide logger. Passing nil restores
// the silent default.
func SetLogger(impl Logger) {
	if impl == nil {
		logger = defaultImpl
		return
	}
	logger = impl
}

// NewStdLogger returns a Logger that writes to stderr, with debug lines
// gated by verbose.
func NewStdLogger(verbose bool) Logger {
	return &stdLogger{debug: verbose}
}

// Infof logs at info level.
func Infof(format string, args ...interface{}) { logger.Infof(format, args...) }

// Warnf logs at warning level.
func Warnf(format string, args ...interface{}) { logger.Warnf(format, args...) }

// Debugf logs at debug level.
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
