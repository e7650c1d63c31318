// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package trace

import (
	"regexp"
	"strings"

	"github.com/sansym/sansym/pkg/config"
)

const (
	// Marker replacing sanitizer-runtime source locations.
	runtimeMarker = "[asan_rtl]"
	// Marker replacing the C-runtime bootstrap pseudo-location.
	unknownMarker = "???:0"
)

// crtstuff.c:0 is a toolchain artifact, not a real source location.
var crtRe = regexp.MustCompile(`.*crtstuff\.c:0`)

// Rewriter normalizes resolved file locations: strips configured path
// prefixes and collapses toolchain-internal locations to opaque markers.
type Rewriter struct {
	cuts      []string
	runtimeRe *regexp.Regexp
}

func NewRewriter(cfg *config.Config) *Rewriter {
	return &Rewriter{
		cuts:      cfg.PathsToCut(),
		runtimeRe: cfg.RuntimeSourceRegexp(),
	}
}

// Rewrite returns loc with all configured prefixes cut and runtime-internal
// locations collapsed. A prefix is cut wherever it appears in the string,
// not only at the start, together with everything before it: resolvers are
// known to emit paths with leading noise.
func (rw *Rewriter) Rewrite(loc string) string {
	for _, cut := range rw.cuts {
		if idx := strings.LastIndex(loc, cut); idx != -1 {
			loc = loc[idx+len(cut):]
		}
	}
	loc = rw.runtimeRe.ReplaceAllString(loc, runtimeMarker)
	return crtRe.ReplaceAllString(loc, unknownMarker)
}
