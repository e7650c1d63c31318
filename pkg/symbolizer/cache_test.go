// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"errors"
	"testing"
)

type countingProvider struct {
	addrs map[string]uint64
	calls map[string]int
}

func (p *countingProvider) LoadAddr(bin string) (uint64, error) {
	if p.calls == nil {
		p.calls = make(map[string]int)
	}
	p.calls[bin]++
	addr, ok := p.addrs[bin]
	if !ok {
		return 0, errors.New("unknown binary")
	}
	return addr, nil
}

func TestLoadAddrCache(t *testing.T) {
	provider := &countingProvider{addrs: map[string]uint64{
		"/bin/a": 0x400000,
		"/bin/b": 0x8000,
	}}
	cache := NewLoadAddrCache(provider)
	for i := 0; i < 3; i++ {
		for bin, want := range provider.addrs {
			got, err := cache.Get(bin)
			if err != nil {
				t.Fatalf("Get(%v) failed: %v", bin, err)
			}
			if got != want {
				t.Fatalf("Get(%v) = %#x, want %#x", bin, got, want)
			}
		}
	}
	for bin, n := range provider.calls {
		if n != 1 {
			t.Errorf("provider called %v times for %v, want 1", n, bin)
		}
	}
}

func TestLoadAddrCacheError(t *testing.T) {
	provider := &countingProvider{}
	cache := NewLoadAddrCache(provider)
	// Errors are not cached. It does not matter for the tool (the first
	// one aborts the run), but the cache must not serve a stale failure
	// to a caller that retries.
	for i := 1; i <= 2; i++ {
		if _, err := cache.Get("/bin/missing"); err == nil {
			t.Fatalf("expected an error")
		}
		if n := provider.calls["/bin/missing"]; n != i {
			t.Fatalf("provider called %v times, want %v", n, i)
		}
	}
}
