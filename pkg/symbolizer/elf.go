// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"debug/elf"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/sansym/sansym/pkg/osutil"
)

// LoadAddrProvider reports the address at which the executable segment of a
// binary is loaded. A provider failure means the toolchain setup is broken
// and any trace symbolized against that binary would be wrong, so callers
// treat it as fatal.
type LoadAddrProvider interface {
	LoadAddr(bin string) (uint64, error)
}

// ReadelfProvider extracts the load address from `readelf -l` output.
type ReadelfProvider struct {
	Readelf string // path to the readelf binary
}

const readelfTimeout = time.Minute

func (p *ReadelfProvider) LoadAddr(bin string) (uint64, error) {
	out, err := osutil.RunCmd(readelfTimeout, "", p.Readelf, "-l", bin)
	if err != nil {
		return 0, osutil.PrependContext(fmt.Sprintf("failed to read program headers of %v", bin), err)
	}
	return parseLoadAddr(out, bin)
}

var loadLineRe = regexp.MustCompile(`^\s*LOAD\s+0x[0-9a-fA-F]+\s+(0x[0-9a-fA-F]+)`)

// parseLoadAddr scans a program-header listing for the first loadable
// segment with execute permissions and returns its virtual address.
func parseLoadAddr(out []byte, bin string) (uint64, error) {
	for _, line := range strings.Split(string(out), "\n") {
		if !strings.Contains(line, "LOAD") || !strings.Contains(line, " E ") {
			continue
		}
		match := loadLineRe.FindStringSubmatch(line)
		if match == nil {
			return 0, fmt.Errorf("unexpected program header of %v: %q", bin, line)
		}
		addr, err := strconv.ParseUint(match[1], 0, 64)
		if err != nil {
			return 0, fmt.Errorf("bad LOAD address of %v: %q", bin, line)
		}
		return addr, nil
	}
	return 0, fmt.Errorf("no executable LOAD segment in %v", bin)
}

// ELFFileProvider reads program headers directly via debug/elf,
// for setups without a binutils readelf.
type ELFFileProvider struct{}

func (ELFFileProvider) LoadAddr(bin string) (uint64, error) {
	f, err := elf.Open(bin)
	if err != nil {
		return 0, fmt.Errorf("failed to open %v: %w", bin, err)
	}
	defer f.Close()
	for _, prog := range f.Progs {
		if prog.Type == elf.PT_LOAD && prog.Flags&elf.PF_X != 0 {
			return prog.Vaddr, nil
		}
	}
	return 0, fmt.Errorf("no executable LOAD segment in %v", bin)
}
