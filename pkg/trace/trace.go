// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package trace processes sanitizer crash output: it recognizes unsymbolized
// stack frame lines, resolves their addresses through per-binary resolver
// processes and rewrites them with function names and source locations.
// Everything else passes through unchanged.
package trace

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strconv"

	"github.com/sansym/sansym/pkg/config"
	"github.com/sansym/sansym/pkg/log"
	"github.com/sansym/sansym/pkg/symbolizer"
)

// Resolver is the symbol lookup the pipeline needs.
// *symbolizer.Symbolizer implements it, tests inject fakes.
type Resolver interface {
	Resolve(bin string, addr uint64) (symbolizer.Frame, error)
}

// Pipeline symbolizes one stream of sanitizer output. All memoization state
// (load addresses in loads, resolver processes inside the Resolver) lives on
// the instance, so a fresh Pipeline starts cold.
type Pipeline struct {
	cfg      *config.Config
	resolver Resolver
	loads    *symbolizer.LoadAddrCache
	rw       *Rewriter
}

func NewPipeline(cfg *config.Config, resolver Resolver, loads *symbolizer.LoadAddrCache) *Pipeline {
	return &Pipeline{
		cfg:      cfg,
		resolver: resolver,
		loads:    loads,
		rw:       NewRewriter(cfg),
	}
}

// Process reads sanitizer output from r line by line and writes the
// symbolized form to w, preserving order. It returns an error only for
// unrecoverable conditions (unreadable input, unusable load-address
// output); per-line resolver failures degrade to empty symbol fields.
func (p *Pipeline) Process(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for scanner.Scan() {
		line, err := p.symbolizeLine(scanner.Text())
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}
	return nil
}

func (p *Pipeline) symbolizeLine(line string) (string, error) {
	f := parseFrame(line)
	if f == nil {
		return line, nil
	}
	offset, err := adjustFrameAddr(f.num, f.offset, p.cfg.ClearLowAddrBit)
	if err != nil {
		// Not a usable offset after all, keep the line as is.
		return line, nil
	}
	addr, err := strconv.ParseUint(offset, 0, 64)
	if err != nil {
		return line, nil
	}
	bin := filepath.Join(p.cfg.SymbolsRoot, f.bin)
	load, err := p.loads.Get(bin)
	if err != nil {
		return "", err
	}
	frame, err := p.resolver.Resolve(bin, addr+load)
	if err != nil {
		// Resolver hiccups degrade one line, they never abort the run.
		log.Logf(1, "resolver failed for %v: %v", bin, err)
		frame = symbolizer.Frame{}
	}
	return fmt.Sprintf("%s in %s %s", f.prefix, frame.Func, p.rw.Rewrite(frame.File)), nil
}
