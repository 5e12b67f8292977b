package models

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
)

// memory access type, used for translation and for mem/fault hooks
const (
	MEM_READ = iota
	MEM_WRITE
	MEM_FETCH
)

// Mmu translates guest virtual addresses to physical addresses before
// the interpreter touches backing storage. Loaders and peripheral
// proxies sit behind this interface; the core only ever calls
// Translate.
type Mmu interface {
	Translate(addr uint64, access int) (uint64, error)
}

// TranslateError is returned when a translation has no mapping.
// The driver treats it as a soft failure before a step (the fault
// surfaces again at fetch time), so it must be distinguishable from
// harder errors.
type TranslateError struct {
	Addr   uint64
	Access int
}

func (t *TranslateError) Error() string {
	reason := "unmapped read"
	switch t.Access {
	case MEM_WRITE:
		reason = "unmapped write"
	case MEM_FETCH:
		reason = "unmapped fetch"
	}
	return fmt.Sprintf("%s at %#x", reason, t.Addr)
}

// FlatMmu is the identity translation. Bare targets with no address
// translation use this.
type FlatMmu struct{}

func (f *FlatMmu) Translate(addr uint64, access int) (uint64, error) {
	return addr, nil
}

type region struct {
	va   uint64
	size uint64
	pa   uint64
}

func (r *region) contains(addr uint64) bool {
	return addr >= r.va && addr < r.va+r.size
}

// RegionMmu windows guest virtual ranges onto physical offsets using a
// sorted region table. Lookup is a binary search.
type RegionMmu struct {
	regions []*region
}

// Map adds a va -> pa window. Overlapping an existing window is an
// error and leaves the table untouched.
func (m *RegionMmu) Map(va, size, pa uint64) error {
	if size == 0 {
		return errors.New("zero-sized region")
	}
	if va+size < va {
		return errors.New("region wraps address space")
	}
	for _, r := range m.regions {
		if va < r.va+r.size && r.va < va+size {
			return errors.Errorf("region %#x-%#x overlaps %#x-%#x",
				va, va+size, r.va, r.va+r.size)
		}
	}
	m.regions = append(m.regions, &region{va: va, size: size, pa: pa})
	sort.Slice(m.regions, func(i, j int) bool {
		return m.regions[i].va < m.regions[j].va
	})
	return nil
}

// binary search for the region containing addr, or -1
func (m *RegionMmu) bsearch(addr uint64) int {
	l := 0
	r := len(m.regions) - 1
	for l <= r {
		mid := (l + r) / 2
		e := m.regions[mid]
		if addr >= e.va {
			if e.contains(addr) {
				return mid
			}
			l = mid + 1
		} else {
			r = mid - 1
		}
	}
	return -1
}

func (m *RegionMmu) Translate(addr uint64, access int) (uint64, error) {
	i := m.bsearch(addr)
	if i < 0 {
		return 0, &TranslateError{Addr: addr, Access: access}
	}
	r := m.regions[i]
	return r.pa + (addr - r.va), nil
}
