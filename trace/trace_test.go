package trace

import (
	"bytes"
	"testing"

	"github.com/lunixbochs/pcode/cpu"
)

func TestTracer(t *testing.T) {
	var buf bytes.Buffer
	tr := New(&buf)
	h := cpu.NewHooks()
	tr.Attach(h)

	if err := h.OnBlock(0x1000, 0x10); err != nil {
		t.Fatal(err)
	}
	if err := h.OnCode(0x1000); err != nil {
		t.Fatal(err)
	}
	if err := h.OnCode(0x1004); err != nil {
		t.Fatal(err)
	}

	want := "block 0x1000 +0x10\n  0x1000\n  0x1004\n"
	if buf.String() != want {
		t.Fatalf("got %q, want %q", buf.String(), want)
	}

	// after detach the registry is quiet again
	tr.Detach(h)
	buf.Reset()
	if err := h.OnCode(0x1008); err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 0 {
		t.Fatalf("detached tracer wrote %q", buf.String())
	}
	if h.NumCode() != 0 || h.NumBlock() != 0 {
		t.Fatal("detach left hooks registered")
	}
}
