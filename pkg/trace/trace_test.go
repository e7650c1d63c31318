// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package trace

import (
	"bytes"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sansym/sansym/pkg/symbolizer"
	"github.com/stretchr/testify/assert"
)

type fakeResolver struct {
	frame symbolizer.Frame
	fail  bool
	bins  []string
	addrs []uint64
}

func (r *fakeResolver) Resolve(bin string, addr uint64) (symbolizer.Frame, error) {
	r.bins = append(r.bins, bin)
	r.addrs = append(r.addrs, addr)
	if r.fail {
		return symbolizer.Frame{}, errors.New("resolver process died")
	}
	return r.frame, nil
}

type fakeProvider struct {
	addr  uint64
	err   error
	calls map[string]int
}

func (p *fakeProvider) LoadAddr(bin string) (uint64, error) {
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[bin]++
	return p.addr, p.err
}

func TestProcessSymbolize(t *testing.T) {
	cfg := testConfig(t)
	resolver := &fakeResolver{frame: symbolizer.Frame{
		Func: "myFunction",
		File: "/build/src/foo.cc:42",
	}}
	provider := &fakeProvider{addr: 0x400000}
	pipe := NewPipeline(cfg, resolver, symbolizer.NewLoadAddrCache(provider))
	output := new(bytes.Buffer)
	input := "#0 0x7f6e35cf2e45  (/system/lib/libfoo.so+0x11fe45)\n"
	if err := pipe.Process(strings.NewReader(input), output); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	assert.Equal(t, "#0 0x7f6e35cf2e45 in myFunction src/foo.cc:42\n", output.String())
	// The lookup went to the binary under the symbols root, at
	// offset-1 (return address bias) plus the load address.
	wantBin := filepath.Join(cfg.SymbolsRoot, "system/lib/libfoo.so")
	assert.Equal(t, []string{wantBin}, resolver.bins)
	assert.Equal(t, []uint64{0x11fe44 + 0x400000}, resolver.addrs)
}

func TestProcessPassthrough(t *testing.T) {
	cfg := testConfig(t)
	resolver := &fakeResolver{frame: symbolizer.Frame{Func: "f", File: "a.cc:1"}}
	provider := &fakeProvider{addr: 0x1000}
	pipe := NewPipeline(cfg, resolver, symbolizer.NewLoadAddrCache(provider))
	input := strings.Join([]string{
		"==1234==ERROR: AddressSanitizer: heap-use-after-free",
		"Fatal signal 11",
		"#1 0x4008cd  (/system/bin/app+0x8cd)",
		"",
		"  random trailing text  ",
	}, "\n") + "\n"
	output := new(bytes.Buffer)
	if err := pipe.Process(strings.NewReader(input), output); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	want := strings.Join([]string{
		"==1234==ERROR: AddressSanitizer: heap-use-after-free",
		"Fatal signal 11",
		"#1 0x4008cd in f a.cc:1",
		"",
		"  random trailing text  ",
	}, "\n") + "\n"
	assert.Equal(t, want, output.String())
}

func TestProcessResolverFailure(t *testing.T) {
	// A broken resolver degrades its lines to empty symbol fields,
	// it never aborts the run.
	cfg := testConfig(t)
	resolver := &fakeResolver{fail: true}
	provider := &fakeProvider{addr: 0x1000}
	pipe := NewPipeline(cfg, resolver, symbolizer.NewLoadAddrCache(provider))
	output := new(bytes.Buffer)
	input := "#1 0x4008cd  (/system/bin/app+0x8cd)\nnext line\n"
	if err := pipe.Process(strings.NewReader(input), output); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	assert.Equal(t, "#1 0x4008cd in  \nnext line\n", output.String())
}

func TestProcessLoadAddrFatal(t *testing.T) {
	// A load-address failure would silently mis-symbolize every frame
	// of that binary, so it aborts the whole run.
	cfg := testConfig(t)
	resolver := &fakeResolver{}
	provider := &fakeProvider{err: errors.New("no executable LOAD segment")}
	pipe := NewPipeline(cfg, resolver, symbolizer.NewLoadAddrCache(provider))
	output := new(bytes.Buffer)
	input := "#0 0x1000 (/bin/a+0x500)\n"
	err := pipe.Process(strings.NewReader(input), output)
	if err == nil {
		t.Fatalf("expected a fatal error")
	}
	assert.Empty(t, output.String())
}

func TestProviderCalledOncePerBinary(t *testing.T) {
	cfg := testConfig(t)
	resolver := &fakeResolver{frame: symbolizer.Frame{Func: "f", File: "a.cc:1"}}
	provider := &fakeProvider{addr: 0x1000}
	pipe := NewPipeline(cfg, resolver, symbolizer.NewLoadAddrCache(provider))
	var input strings.Builder
	for i := 0; i < 10; i++ {
		fmt.Fprintf(&input, "#%v 0x%x (/bin/a+0x%x)\n", i, 0x1000+i, 0x500+i)
		fmt.Fprintf(&input, "#%v 0x%x (/bin/b+0x%x)\n", i, 0x2000+i, 0x600+i)
	}
	if err := pipe.Process(strings.NewReader(input.String()), new(bytes.Buffer)); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(provider.calls) != 2 {
		t.Fatalf("provider saw %v binaries, want 2", len(provider.calls))
	}
	for bin, n := range provider.calls {
		if n != 1 {
			t.Errorf("provider called %v times for %v, want 1", n, bin)
		}
	}
}
