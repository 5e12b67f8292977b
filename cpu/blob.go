package cpu

// BlobStore is dense storage: one byte slice sized to a known fixed
// upper bound, giving O(1) addressing. Reserving a large bound is
// cheap because the host only commits physical pages as they are
// touched; a very sparse write pattern over the whole bound is the one
// way to make it expensive.
type BlobStore struct {
	data []byte
	// high bounds the bytes ever written, so used() and reset() never
	// walk the untouched tail of a large bound
	high uint64
}

func NewBlobStore(size uint64) *BlobStore {
	return &BlobStore{data: make([]byte, size)}
}

func (b *BlobStore) Size() uint64 {
	return uint64(len(b.data))
}

func (b *BlobStore) check(off uint64, size int, write bool) error {
	end := off + uint64(size)
	if end < off || end > uint64(len(b.data)) {
		return &RangeError{Off: off, Size: size, Limit: uint64(len(b.data)), Write: write}
	}
	return nil
}

func (b *BlobStore) Read(off uint64, p []byte) error {
	if err := b.check(off, len(p), false); err != nil {
		return err
	}
	copy(p, b.data[off:])
	return nil
}

func (b *BlobStore) Write(off uint64, p []byte) error {
	if err := b.check(off, len(p), true); err != nil {
		return err
	}
	copy(b.data[off:], p)
	if end := off + uint64(len(p)); end > b.high {
		b.high = end
	}
	return nil
}

func (b *BlobStore) reset() {
	for i := uint64(0); i < b.high; i++ {
		b.data[i] = 0
	}
	b.high = 0
}

// used is the length of the prefix holding any nonzero byte, so a
// context snapshot doesn't serialize the untouched tail of a large
// bound. Only bytes below the write mark are scanned.
func (b *BlobStore) used() uint64 {
	for i := b.high; i > 0; i-- {
		if b.data[i-1] != 0 {
			return i
		}
	}
	return 0
}
