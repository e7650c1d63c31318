// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package trace

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Logging-system decoration on each line, e.g. "I/DEBUG   (   31): ".
	// The tag may be padded with spaces up to the pid column.
	logPrefixRe = regexp.MustCompile(`^[A-Z]/[^\s]* *\(\s*\d+\): `)
	// Unsymbolized stack frame: "    #3 0xdeadbeef (/system/lib/libfoo.so+0x1234)".
	frameRe = regexp.MustCompile(`^(\s*#([0-9]+) *0x[0-9a-f]+) *\((.*)\+(0x[0-9a-f]+)\)`)
)

// frame is the parsed form of one unsymbolized stack frame line.
type frame struct {
	prefix string // the original "#N 0xADDR" text, kept verbatim for output
	num    string // frame number
	bin    string // binary path with the leading / trimmed
	offset string // hex offset within the binary, 0x-prefixed
}

// parseFrame matches one line against the frame shape, with the logging
// decoration (if any) stripped first. Returns nil for lines that are not
// unsymbolized frames: blank lines, free-form text, already symbolized
// frames.
func parseFrame(line string) *frame {
	line = logPrefixRe.ReplaceAllString(line, "")
	match := frameRe.FindStringSubmatch(line)
	if match == nil {
		return nil
	}
	return &frame{
		prefix: match[1],
		num:    match[2],
		bin:    strings.TrimPrefix(match[3], "/"),
		offset: match[4],
	}
}

// adjustFrameAddr applies the return-address bias to the top frame: the
// captured address points past the faulting instruction, stepping one byte
// back lands the lookup inside it. On targets where the low address bit is
// an instruction-set mode marker it is cleared first. Other frames pass
// through unchanged.
func adjustFrameAddr(num, offset string, clearLowBit bool) (string, error) {
	if num != "0" {
		return offset, nil
	}
	addr, err := strconv.ParseUint(offset, 0, 64)
	if err != nil {
		return "", err
	}
	if clearLowBit {
		addr &^= 1
	}
	addr--
	return fmt.Sprintf("%#x", addr), nil
}
