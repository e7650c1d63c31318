// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package symbolizer turns absolute addresses in a binary into function names
// and source locations. Lookups go through long-lived resolver subprocesses,
// one per binary, so repeated frames against the same binary never pay the
// process spawn cost twice.
package symbolizer

import (
	"bufio"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/sansym/sansym/pkg/log"
	"github.com/sansym/sansym/pkg/osutil"
)

// Frame is the result of one address lookup.
// Func and File are empty when the resolver could not answer.
type Frame struct {
	Func string
	File string // raw "path:line" as reported by the resolver
}

// Symbolizer keeps one resolver subprocess per binary and reuses it across
// lookups. Not thread-safe. The zero value is not usable, use NewSymbolizer.
type Symbolizer struct {
	addr2line string
	demangle  bool
	subprocs  map[string]*subprocess
}

type subprocess struct {
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	stdout  io.Closer
	scanner *bufio.Scanner
}

// NewSymbolizer returns a Symbolizer that spawns the given addr2line binary
// for each symbolized binary. If demangle is set, function names are
// demangled before they are returned.
func NewSymbolizer(addr2line string, demangle bool) *Symbolizer {
	return &Symbolizer{
		addr2line: addr2line,
		demangle:  demangle,
	}
}

// Resolve looks up the function name and file:line for addr in bin.
// The exchange with the resolver is strictly synchronous: one address
// written, two lines read back.
func (s *Symbolizer) Resolve(bin string, addr uint64) (Frame, error) {
	sub, err := s.getSubprocess(bin)
	if err != nil {
		return Frame{}, err
	}
	if _, err := fmt.Fprintf(sub.stdin, "0x%x\n", addr); err != nil {
		return Frame{}, fmt.Errorf("failed to write to resolver for %v: %w", bin, err)
	}
	var reply [2]string
	for i := range reply {
		if !sub.scanner.Scan() {
			if err := sub.scanner.Err(); err != nil {
				return Frame{}, fmt.Errorf("failed to read from resolver for %v: %w", bin, err)
			}
			return Frame{}, fmt.Errorf("resolver for %v closed its output", bin)
		}
		reply[i] = strings.TrimRight(sub.scanner.Text(), "\r")
	}
	frame := Frame{Func: reply[0], File: reply[1]}
	if s.demangle {
		frame.Func = demangleName(frame.Func)
	}
	return frame, nil
}

// Close terminates all resolver subprocesses. The one-shot tool relies on
// process teardown instead, but tests and long-running callers need it.
func (s *Symbolizer) Close() {
	for _, sub := range s.subprocs {
		sub.stdin.Close()
		sub.stdout.Close()
		sub.cmd.Process.Kill()
		sub.cmd.Wait()
	}
	s.subprocs = nil
}

func (s *Symbolizer) getSubprocess(bin string) (*subprocess, error) {
	if sub := s.subprocs[bin]; sub != nil {
		return sub, nil
	}
	cmd := osutil.Command(s.addr2line, "-f", "-e", bin)
	cmd.Stderr = log.VerboseWriter(2)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	// An enlarged pipe keeps the resolver from blocking on long
	// demangled replies while we are still writing the next address.
	stdout, stdoutWrite, err := osutil.LongPipe()
	if err != nil {
		stdin.Close()
		return nil, err
	}
	cmd.Stdout = stdoutWrite
	if err := cmd.Start(); err != nil {
		stdin.Close()
		stdout.Close()
		stdoutWrite.Close()
		return nil, fmt.Errorf("failed to start %v: %w", s.addr2line, err)
	}
	stdoutWrite.Close()
	log.Logf(2, "started resolver %v for %v", s.addr2line, bin)
	sub := &subprocess{
		cmd:     cmd,
		stdin:   stdin,
		stdout:  stdout,
		scanner: bufio.NewScanner(stdout),
	}
	if s.subprocs == nil {
		s.subprocs = make(map[string]*subprocess)
	}
	s.subprocs[bin] = sub
	return sub, nil
}
