// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// san-bench measures symbolization throughput over a recorded crash log.
// Unlike san-symbolize it is a developer tool and takes flags.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/sansym/sansym/pkg/config"
	"github.com/sansym/sansym/pkg/log"
	"github.com/sansym/sansym/pkg/symbolizer"
	"github.com/sansym/sansym/pkg/tool"
	"github.com/sansym/sansym/pkg/trace"
)

var (
	flagTrace      = flag.String("trace", "", "crash log to symbolize")
	flagRepeat     = flag.Int("n", 10, "number of passes over the trace")
	flagCPUProfile = flag.String("cpuprofile", "", "write cpu profile to file")
	flagNull       = flag.Bool("null", false, "use a null resolver (measures the pipeline alone)")
	flagVerbose    = flag.Int("v", 0, "diagnostic verbosity")
)

func main() {
	flag.Parse()
	if *flagTrace == "" {
		fmt.Fprintf(os.Stderr, "usage: san-bench -trace=crash.log [flags] [path-prefix ...]\n")
		flag.PrintDefaults()
		os.Exit(1)
	}
	log.SetVerbosity(*flagVerbose)

	data, err := os.ReadFile(*flagTrace)
	if err != nil {
		tool.Fail(err)
	}
	lines := bytes.Count(data, []byte("\n"))
	fmt.Printf("loaded %v lines\n", lines)

	var cfg *config.Config
	if *flagNull {
		cfg = config.Default()
		cfg.ResolverRoot = "/"
		cfg.SymbolsRoot = "/"
		cfg.BuildRoot = "/build"
	} else {
		cfg, err = config.FromEnv()
		if err != nil {
			tool.Fail(err)
		}
	}
	cfg.ExtraPathsToCut = flag.Args()
	if err := cfg.Complete(); err != nil {
		tool.Fail(err)
	}

	var resolver trace.Resolver
	var provider symbolizer.LoadAddrProvider
	if *flagNull {
		resolver, provider = nullResolver{}, nullProvider{}
	} else {
		symb := symbolizer.NewSymbolizer(cfg.Addr2linePath(), cfg.Demangle)
		defer symb.Close()
		resolver = symb
		provider = &symbolizer.ReadelfProvider{Readelf: cfg.ReadelfPath()}
		if cfg.UseNativeELF {
			provider = symbolizer.ELFFileProvider{}
		}
	}

	if *flagCPUProfile != "" {
		f, err := os.Create(*flagCPUProfile)
		if err != nil {
			tool.Fail(err)
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	pipe := trace.NewPipeline(cfg, resolver, symbolizer.NewLoadAddrCache(provider))

	// The first pass pays for resolver startup and load-address reads,
	// the remaining passes hit the caches.
	start := time.Now()
	if err := pipe.Process(bytes.NewReader(data), io.Discard); err != nil {
		tool.Fail(err)
	}
	cold := time.Since(start)
	fmt.Printf("cold pass: %v lines in %v (%.0f lines/sec)\n",
		lines, cold, float64(lines)/cold.Seconds())

	start = time.Now()
	for i := 1; i < *flagRepeat; i++ {
		if err := pipe.Process(bytes.NewReader(data), io.Discard); err != nil {
			tool.Fail(err)
		}
	}
	if n := *flagRepeat - 1; n > 0 {
		warm := time.Since(start) / time.Duration(n)
		fmt.Printf("warm pass: %v lines in %v (%.0f lines/sec)\n",
			lines, warm, float64(lines)/warm.Seconds())
	}
}

// nullResolver resolves every address to the same fake symbol. It keeps the
// benchmark runnable without a cross toolchain.
type nullResolver struct{}

func (nullResolver) Resolve(bin string, addr uint64) (symbolizer.Frame, error) {
	return symbolizer.Frame{Func: "benchFunc", File: "/build/src/bench.cc:1"}, nil
}

type nullProvider struct{}

func (nullProvider) LoadAddr(bin string) (uint64, error) {
	return 0x400000, nil
}
