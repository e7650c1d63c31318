// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"github.com/ianlancetaylor/demangle"
)

// demangleName turns a mangled C++ name into a readable one.
// Names that don't demangle (plain C symbols, resolver markers like "??")
// are returned as is.
func demangleName(name string) string {
	if d, err := demangle.ToString(name); err == nil {
		return d
	}
	return name
}
