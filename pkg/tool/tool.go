// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package tool contains various helper utilitites useful for implementation of command line tools.
package tool

import (
	"os"

	"github.com/fatih/color"
)

var errColor = color.New(color.FgRed, color.Bold)

// Failf prints the formatted message to stderr and exits with a non-zero status.
// The message is tinted red when stderr is a terminal.
func Failf(msg string, args ...interface{}) {
	errColor.Fprintf(os.Stderr, msg+"\n", args...)
	os.Exit(1)
}

func Fail(err error) {
	Failf("%v", err)
}
