// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package targets describes the architectures whose crash logs the tool
// can symbolize.
package targets

type Target struct {
	Arch string
	// ToolPrefix is prepended to readelf/addr2line binary names
	// when composing their path under the toolchain root.
	ToolPrefix string
	// ClearLowAddrBit is set for instruction sets that use the low
	// address bit as an execution mode marker (32-bit ARM Thumb).
	// The bit must be cleared before address arithmetic.
	ClearLowAddrBit bool
}

// DefaultArch is assumed when the environment does not name a target.
const DefaultArch = "arm"

var List = map[string]*Target{
	"arm": {
		Arch:            "arm",
		ToolPrefix:      "arm-linux-androideabi-",
		ClearLowAddrBit: true,
	},
	"arm64": {
		Arch:       "arm64",
		ToolPrefix: "aarch64-linux-android-",
	},
	"386": {
		Arch:       "386",
		ToolPrefix: "i686-linux-android-",
	},
	"amd64": {
		Arch:       "amd64",
		ToolPrefix: "x86_64-linux-android-",
	},
	// Unprefixed host toolchain, for traces produced on the build machine.
	"host": {
		Arch: "host",
	},
}

func Get(arch string) *Target {
	return List[arch]
}
