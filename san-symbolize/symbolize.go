// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// san-symbolize reads sanitizer crash output on stdin and writes the
// symbolized form to stdout. It takes no flags: all setup comes from
// SANSYM_* environment variables, and every positional argument names
// an extra path prefix to cut from resolved source locations.
//
// Usage:
//
//	SANSYM_TOOLCHAIN=/path/to/toolchain/bin \
//	SANSYM_SYMBOLS=/path/to/symbols \
//	SANSYM_BUILD_ROOT=/path/to/build \
//	san-symbolize [path-prefix ...] < crash.log
package main

import (
	"os"

	"github.com/sansym/sansym/pkg/config"
	"github.com/sansym/sansym/pkg/log"
	"github.com/sansym/sansym/pkg/osutil"
	"github.com/sansym/sansym/pkg/symbolizer"
	"github.com/sansym/sansym/pkg/tool"
	"github.com/sansym/sansym/pkg/trace"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		tool.Fail(err)
	}
	// No flag parsing: sanitizer wrappers invoke this tool with arbitrary
	// positional arguments, all of them path prefixes to cut.
	cfg.ExtraPathsToCut = os.Args[1:]
	if err := cfg.Complete(); err != nil {
		tool.Fail(err)
	}
	log.SetVerbosity(cfg.Verbose)
	log.Logf(1, "target %v, resolvers in %v, symbols in %v",
		cfg.TargetArch, cfg.ResolverRoot, cfg.SymbolsRoot)

	symb := symbolizer.NewSymbolizer(cfg.Addr2linePath(), cfg.Demangle)
	defer symb.Close()
	var provider symbolizer.LoadAddrProvider = &symbolizer.ReadelfProvider{Readelf: cfg.ReadelfPath()}
	required := []string{cfg.Addr2linePath(), cfg.ReadelfPath()}
	if cfg.UseNativeELF {
		provider = symbolizer.ELFFileProvider{}
		required = required[:1]
	}
	// A missing toolchain binary is a configuration error,
	// fail before consuming any input.
	for _, bin := range required {
		if err := osutil.IsAccessible(bin); err != nil {
			tool.Fail(err)
		}
	}
	pipe := trace.NewPipeline(cfg, symb, symbolizer.NewLoadAddrCache(provider))
	if err := pipe.Process(os.Stdin, os.Stdout); err != nil {
		tool.Fail(err)
	}
}
