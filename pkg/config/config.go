// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

// Package config holds the tool configuration. The required values come from
// the environment, tunables can be overridden with an optional JSON file,
// extra path prefixes to cut come from positional arguments.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/sansym/sansym/pkg/osutil"
	"github.com/sansym/sansym/sys/targets"
)

// Environment variables recognized by FromEnv.
const (
	EnvToolchain = "SANSYM_TOOLCHAIN"  // root directory with <prefix>readelf / <prefix>addr2line
	EnvSymbols   = "SANSYM_SYMBOLS"    // directory tree with unstripped binaries
	EnvBuildRoot = "SANSYM_BUILD_ROOT" // build root, stripped from resolved paths
	EnvTarget    = "SANSYM_TARGET"     // optional target arch, see sys/targets
	EnvConfig    = "SANSYM_CONFIG"     // optional JSON config file with tunables
	EnvVerbose   = "SANSYM_VERBOSE"    // optional diagnostic verbosity (stderr)
)

type Config struct {
	// Required roots, from the environment.
	ResolverRoot string `json:"-"`
	SymbolsRoot  string `json:"-"`
	BuildRoot    string `json:"-"`

	// Extra path prefixes to cut, from positional arguments.
	ExtraPathsToCut []string `json:"-"`

	// Tunables, overridable via the optional config file.
	ClearLowAddrBit bool   `json:"clear_low_addr_bit"`
	Demangle        bool   `json:"demangle"`
	RuntimeSourceRE string `json:"runtime_source_re"`
	ReadelfBin      string `json:"readelf_bin"`
	Addr2lineBin    string `json:"addr2line_bin"`
	UseNativeELF    bool   `json:"use_native_elf"`
	Verbose         int    `json:"verbose"`

	// Derived during FromEnv/Complete.
	TargetArch string `json:"-"`
	ToolPrefix string `json:"-"`
	Cwd        string `json:"-"`

	runtimeRe *regexp.Regexp
}

// Default returns a Config with the tunables at their default values.
func Default() *Config {
	return &Config{
		Demangle:        true,
		RuntimeSourceRE: `asan_[a-z_]*\.(cc|h)`,
		ReadelfBin:      "readelf",
		Addr2lineBin:    "addr2line",
	}
}

// FromEnv builds a Config from the environment. All three root variables are
// required; their absence is reported together so a misconfigured environment
// is fixed in one go. The returned Config still has to be completed.
func FromEnv() (*Config, error) {
	cfg := Default()
	var missing []string
	for _, v := range []struct {
		name string
		dst  *string
	}{
		{EnvToolchain, &cfg.ResolverRoot},
		{EnvSymbols, &cfg.SymbolsRoot},
		{EnvBuildRoot, &cfg.BuildRoot},
	} {
		*v.dst = os.Getenv(v.name)
		if *v.dst == "" {
			missing = append(missing, v.name)
		}
	}
	if len(missing) != 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v",
			strings.Join(missing, ", "))
	}
	cfg.TargetArch = os.Getenv(EnvTarget)
	if cfg.TargetArch == "" {
		cfg.TargetArch = targets.DefaultArch
	}
	target := targets.Get(cfg.TargetArch)
	if target == nil {
		return nil, fmt.Errorf("%v: unsupported target %q", EnvTarget, cfg.TargetArch)
	}
	cfg.ToolPrefix = target.ToolPrefix
	cfg.ClearLowAddrBit = target.ClearLowAddrBit
	if file := os.Getenv(EnvConfig); file != "" {
		if err := LoadFile(file, cfg); err != nil {
			return nil, err
		}
	}
	if v := os.Getenv(EnvVerbose); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%v: bad verbosity %q", EnvVerbose, v)
		}
		cfg.Verbose = n
	}
	return cfg, nil
}

// Complete validates the config and fills in derived values.
// It must be called once before the config is used.
func (cfg *Config) Complete() error {
	if cfg.ResolverRoot == "" {
		return fmt.Errorf("config param resolver root is empty")
	}
	if cfg.SymbolsRoot == "" {
		return fmt.Errorf("config param symbols root is empty")
	}
	if cfg.BuildRoot == "" {
		return fmt.Errorf("config param build root is empty")
	}
	cfg.ResolverRoot = osutil.Abs(cfg.ResolverRoot)
	cfg.SymbolsRoot = osutil.Abs(cfg.SymbolsRoot)
	if !osutil.IsDir(cfg.ResolverRoot) {
		return fmt.Errorf("resolver root %v is not a directory", cfg.ResolverRoot)
	}
	if !osutil.IsDir(cfg.SymbolsRoot) {
		return fmt.Errorf("symbols root %v is not a directory", cfg.SymbolsRoot)
	}
	if cfg.ReadelfBin == "" {
		return fmt.Errorf("config param readelf_bin is empty")
	}
	if cfg.Addr2lineBin == "" {
		return fmt.Errorf("config param addr2line_bin is empty")
	}
	if cfg.RuntimeSourceRE == "" {
		return fmt.Errorf("config param runtime_source_re is empty")
	}
	re, err := regexp.Compile(`.*` + cfg.RuntimeSourceRE + `:[0-9]*`)
	if err != nil {
		return fmt.Errorf("bad config param runtime_source_re: %w", err)
	}
	cfg.runtimeRe = re
	if cfg.Cwd == "" {
		cfg.Cwd, err = os.Getwd()
		if err != nil {
			return fmt.Errorf("failed to get working directory: %w", err)
		}
	}
	return nil
}

// ReadelfPath returns the path of the load-address reading tool.
func (cfg *Config) ReadelfPath() string {
	return filepath.Join(cfg.ResolverRoot, cfg.ToolPrefix+cfg.ReadelfBin)
}

// Addr2linePath returns the path of the address resolver tool.
func (cfg *Config) Addr2linePath() string {
	return filepath.Join(cfg.ResolverRoot, cfg.ToolPrefix+cfg.Addr2lineBin)
}

// RuntimeSourceRegexp returns the compiled runtime-internal source file
// pattern. Valid after Complete.
func (cfg *Config) RuntimeSourceRegexp() *regexp.Regexp {
	return cfg.runtimeRe
}

// PathsToCut returns all path prefixes to strip from resolved locations:
// the working directory, the build root, then the caller-supplied extras,
// each with a trailing separator.
func (cfg *Config) PathsToCut() []string {
	cuts := make([]string, 0, 2+len(cfg.ExtraPathsToCut))
	for _, cut := range append([]string{cfg.Cwd, cfg.BuildRoot}, cfg.ExtraPathsToCut...) {
		if !strings.HasSuffix(cut, string(filepath.Separator)) {
			cut += string(filepath.Separator)
		}
		cuts = append(cuts, cut)
	}
	return cuts
}
