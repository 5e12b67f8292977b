package cpu

import "fmt"

// Store is the concrete storage behind one address space. Offsets are
// space-local; translation already happened by the time a store is
// touched.
type Store interface {
	Read(off uint64, p []byte) error
	Write(off uint64, p []byte) error
}

// RangeError reports an access outside a store's bound.
type RangeError struct {
	Off   uint64
	Size  int
	Limit uint64
	Write bool
}

func (e *RangeError) Error() string {
	op := "read"
	if e.Write {
		op = "write"
	}
	return fmt.Sprintf("%s of %d bytes at %#x outside store bound %#x", op, e.Size, e.Off, e.Limit)
}
