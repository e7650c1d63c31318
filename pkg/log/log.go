// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package log provides functionality similar to standard log package with some extensions:
//   - verbosity levels
//   - global verbosity setting that can be used by multiple packages
//
// All output goes to stderr, the tool's stdout carries only symbolized data.
// Verbosity is set explicitly at startup (the primary tool has no flags),
// typically from an environment variable.
package log

import (
	golog "log"
)

var verbosity int

// SetVerbosity sets the global verbosity level.
// Must be called before any concurrent use of the package.
func SetVerbosity(v int) {
	verbosity = v
}

// V reports whether logging at the given level is enabled.
func V(level int) bool {
	return level <= verbosity
}

func Logf(v int, msg string, args ...interface{}) {
	if V(v) {
		golog.Printf(msg, args...)
	}
}

func Fatal(err error) {
	golog.Fatal(err)
}

func Fatalf(msg string, args ...interface{}) {
	golog.Fatalf(msg, args...)
}

// VerboseWriter is an io.Writer that forwards everything to Logf
// at the given level. Handy for subprocess stderr.
type VerboseWriter int

func (w VerboseWriter) Write(data []byte) (int, error) {
	Logf(int(w), "%s", data)
	return len(data), nil
}
