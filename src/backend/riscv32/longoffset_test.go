package riscv32

import (
	"strings"
	"testing"

	"sysyrv/src/util"
)

func TestImmFits(t *testing.T) {
	cases := []struct {
		in   int
		want bool
	}{
		{0, true}, {2047, true}, {-2048, true}, {2048, false}, {-2049, false}, {100000, false},
	}
	for _, c := range cases {
		if got := immFits(c.in); got != c.want {
			t.Errorf("immFits(%d): expected %v, got %v", c.in, c.want, got)
		}
	}
}

func TestGenerateLWSmallOffset(t *testing.T) {
	w := &util.Writer{}
	generateLW(w, "t0", 16, "sp")
	out := w.String()
	if !strings.Contains(out, "lw\tt0, 16(sp)") {
		t.Errorf("expected a plain lw for a small offset, got %q", out)
	}
	if strings.Contains(out, "li") {
		t.Errorf("did not expect a li fallback for a small offset, got %q", out)
	}
}

func TestGenerateLWLargeOffset(t *testing.T) {
	w := &util.Writer{}
	generateLW(w, "t0", 5000, "sp")
	out := w.String()
	if !strings.Contains(out, "li\tt0, 5000") {
		t.Errorf("expected a li materialising the oversized offset, got %q", out)
	}
	if !strings.Contains(out, "add\tt0, t0, sp") {
		t.Errorf("expected the address to be computed via add, got %q", out)
	}
	if !strings.Contains(out, "lw\tt0, 0(t0)") {
		t.Errorf("expected the final load to read through the computed address, got %q", out)
	}
}

func TestGenerateSWLargeOffsetBorrowsScratch(t *testing.T) {
	pool := NewRegPool()
	w := &util.Writer{}
	generateSW(w, pool, "a0", 5000, "sp")
	out := w.String()
	if strings.Contains(out, "li\ta0,") {
		t.Errorf("the value register a0 must not be clobbered by the address computation, got %q", out)
	}
	if !strings.Contains(out, "sw\ta0, 0(t0)") {
		t.Errorf("expected the store to write through the borrowed address register, got %q", out)
	}
	// The borrowed scratch register must be returned to the pool afterward.
	if len(pool.avail) != len(tempRegs) {
		t.Errorf("expected the borrowed scratch register to be released, got %d available", len(pool.avail))
	}
}

func TestGenerateAddiLargeImmediate(t *testing.T) {
	pool := NewRegPool()
	w := &util.Writer{}
	generateAddi(w, pool, "sp", "sp", -5000)
	out := w.String()
	if !strings.Contains(out, "li\tt0, -5000") {
		t.Errorf("expected a li materialising the oversized immediate, got %q", out)
	}
	if !strings.Contains(out, "add\tsp, sp, t0") {
		t.Errorf("expected the final adjustment via add, got %q", out)
	}
}
