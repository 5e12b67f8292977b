package models

import "testing"

func TestFlatMmu(t *testing.T) {
	m := &FlatMmu{}
	for _, addr := range []uint64{0, 0x1000, ^uint64(0)} {
		got, err := m.Translate(addr, MEM_FETCH)
		if err != nil {
			t.Fatal(err)
		}
		if got != addr {
			t.Fatalf("identity broken: %#x -> %#x", addr, got)
		}
	}
}

func TestRegionMmu(t *testing.T) {
	m := &RegionMmu{}
	if err := m.Map(0x1000, 0x1000, 0x8000); err != nil {
		t.Fatal(err)
	}
	if err := m.Map(0x4000, 0x1000, 0x0); err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct{ va, pa uint64 }{
		{0x1000, 0x8000},
		{0x1fff, 0x8fff},
		{0x4000, 0x0},
		{0x4123, 0x123},
	} {
		got, err := m.Translate(tc.va, MEM_READ)
		if err != nil {
			t.Fatalf("%#x: %v", tc.va, err)
		}
		if got != tc.pa {
			t.Fatalf("%#x -> %#x, want %#x", tc.va, got, tc.pa)
		}
	}

	for _, va := range []uint64{0x0, 0xfff, 0x2000, 0x3fff, 0x5000} {
		_, err := m.Translate(va, MEM_FETCH)
		if err == nil {
			t.Fatalf("%#x translated outside any region", va)
		}
		te, ok := err.(*TranslateError)
		if !ok {
			t.Fatalf("expected TranslateError, got %T", err)
		}
		if te.Addr != va || te.Access != MEM_FETCH {
			t.Fatalf("bad fault info: %+v", te)
		}
	}
}

func TestRegionMmuMapErrors(t *testing.T) {
	m := &RegionMmu{}
	if err := m.Map(0x1000, 0, 0); err == nil {
		t.Fatal("zero-sized region mapped")
	}
	if err := m.Map(^uint64(0)-0xf, 0x100, 0); err == nil {
		t.Fatal("wrapping region mapped")
	}
	if err := m.Map(0x1000, 0x1000, 0); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct{ va, size uint64 }{
		{0x1000, 0x1000},
		{0x800, 0x900},
		{0x1fff, 0x10},
		{0x0, 0x10000},
	} {
		if err := m.Map(tc.va, tc.size, 0); err == nil {
			t.Fatalf("overlapping region (%#x, %#x) mapped", tc.va, tc.size)
		}
	}
	// failed maps must not leave partial state
	if got, err := m.Translate(0x1234, MEM_READ); err != nil || got != 0x234 {
		t.Fatalf("original region disturbed: %#x, %v", got, err)
	}
	if _, err := m.Translate(0x800, MEM_READ); err == nil {
		t.Fatal("rejected region is live")
	}
}

func TestEventLatch(t *testing.T) {
	l := &EventLatch{}
	if _, ok := l.Pending(); ok {
		t.Fatal("fresh latch has pending events")
	}
	for i := uint32(1); i <= 3; i++ {
		if err := l.Raise(i); err != nil {
			t.Fatal(err)
		}
	}
	for i := uint32(1); i <= 3; i++ {
		ev, ok := l.Pending()
		if !ok || ev != i {
			t.Fatalf("got (%d, %v), want %d", ev, ok, i)
		}
	}
	if _, ok := l.Pending(); ok {
		t.Fatal("drained latch has pending events")
	}
}
