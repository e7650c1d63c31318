// Copyright 2026 sansym project authors. All rights reserved.
// Use of this source code is governed by Apache 2 LICENSE that can be found in the LICENSE file.

package symbolizer

import (
	"fmt"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/sansym/sansym/pkg/osutil"
)

// fakeResolverScript behaves like addr2line -f: one address in,
// two lines out. It replies with CRLF on the first line to check
// that line-ending trimming works.
const fakeResolverScript = `#!/bin/sh
while read addr; do
	printf 'fn_%s\r\n' "$addr"
	printf '/build/src/%s.cc:42\n' "$addr"
done
`

func startFakeResolver(t *testing.T, script string) *Symbolizer {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("the fake resolver is a shell script")
	}
	bin := filepath.Join(t.TempDir(), "addr2line")
	if err := osutil.WriteExecFile(bin, []byte(script)); err != nil {
		t.Fatal(err)
	}
	s := NewSymbolizer(bin, false)
	t.Cleanup(s.Close)
	return s
}

func TestResolve(t *testing.T) {
	s := startFakeResolver(t, fakeResolverScript)
	frame, err := s.Resolve("/bin/a", 0x1234)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if frame.Func != "fn_0x1234" {
		t.Errorf("got function %q, want fn_0x1234", frame.Func)
	}
	if frame.File != "/build/src/0x1234.cc:42" {
		t.Errorf("got location %q, want /build/src/0x1234.cc:42", frame.File)
	}
}

func TestResolveReusesProcess(t *testing.T) {
	s := startFakeResolver(t, fakeResolverScript)
	for i := 0; i < 10; i++ {
		if _, err := s.Resolve("/bin/a", uint64(0x1000+i)); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	if len(s.subprocs) != 1 {
		t.Fatalf("%v resolver processes for one binary, want 1", len(s.subprocs))
	}
	if _, err := s.Resolve("/bin/b", 0x2000); err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if len(s.subprocs) != 2 {
		t.Fatalf("%v resolver processes for two binaries, want 2", len(s.subprocs))
	}
}

func TestResolveDeadProcess(t *testing.T) {
	s := startFakeResolver(t, "#!/bin/sh\nexit 1\n")
	if _, err := s.Resolve("/bin/a", 0x1000); err == nil {
		t.Fatalf("expected an error from a resolver that exits immediately")
	}
}

func TestResolveMissingBinary(t *testing.T) {
	s := NewSymbolizer(filepath.Join(t.TempDir(), "nonexistent"), false)
	defer s.Close()
	if _, err := s.Resolve("/bin/a", 0x1000); err == nil {
		t.Fatalf("expected an error for a missing resolver binary")
	}
}

func TestClose(t *testing.T) {
	s := startFakeResolver(t, fakeResolverScript)
	for i := 0; i < 3; i++ {
		if _, err := s.Resolve(fmt.Sprintf("/bin/%v", i), 0x1000); err != nil {
			t.Fatalf("Resolve failed: %v", err)
		}
	}
	s.Close()
	if len(s.subprocs) != 0 {
		t.Fatalf("%v resolver processes after Close, want 0", len(s.subprocs))
	}
}
