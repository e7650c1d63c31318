// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"sync"

	"github.com/sansym/sansym/pkg/log"
)

// LoadAddrCache memoizes load addresses per binary path in a thread-safe way.
// Entries are keyed by the exact path passed in, callers are responsible for
// passing a canonical path consistently. Entries are never evicted.
type LoadAddrCache struct {
	provider LoadAddrProvider
	mu       sync.Mutex
	addrs    map[string]uint64
}

func NewLoadAddrCache(provider LoadAddrProvider) *LoadAddrCache {
	return &LoadAddrCache{provider: provider}
}

// Get returns the load address for bin, asking the provider at most once per
// distinct path. Failures are not cached, they abort the run anyway.
func (c *LoadAddrCache) Get(bin string) (uint64, error) {
	c.mu.Lock()
	addr, ok := c.addrs[bin]
	c.mu.Unlock()
	if ok {
		return addr, nil
	}
	addr, err := c.provider.LoadAddr(bin)
	if err != nil {
		return 0, err
	}
	c.mu.Lock()
	if c.addrs == nil {
		c.addrs = make(map[string]uint64)
	}
	c.addrs[bin] = addr
	c.mu.Unlock()
	log.Logf(1, "load address of %v: %#x", bin, addr)
	return addr, nil
}
