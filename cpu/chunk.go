package cpu

const (
	chunkShift = 12
	chunkSize  = 1 << chunkShift
	chunkMask  = chunkSize - 1
)

// ChunkStore is sparse storage: a map from chunk-aligned offset to a
// fixed-size chunk. It serves architecture-declared spaces whose
// domain is unbounded or keyed by value rather than laid out
// contiguously. Reads of never-written chunks see zeros and allocate
// nothing.
type ChunkStore struct {
	chunks map[uint64][]byte
}

func NewChunkStore() *ChunkStore {
	return &ChunkStore{chunks: make(map[uint64][]byte)}
}

func (c *ChunkStore) Read(off uint64, p []byte) error {
	for len(p) > 0 {
		base := off &^ uint64(chunkMask)
		o := off & chunkMask
		n := chunkSize - int(o)
		if n > len(p) {
			n = len(p)
		}
		if chunk, ok := c.chunks[base]; ok {
			copy(p[:n], chunk[o:])
		} else {
			for i := 0; i < n; i++ {
				p[i] = 0
			}
		}
		off += uint64(n)
		p = p[n:]
	}
	return nil
}

func (c *ChunkStore) Write(off uint64, p []byte) error {
	for len(p) > 0 {
		base := off &^ uint64(chunkMask)
		o := off & chunkMask
		n := chunkSize - int(o)
		if n > len(p) {
			n = len(p)
		}
		chunk, ok := c.chunks[base]
		if !ok {
			chunk = make([]byte, chunkSize)
			c.chunks[base] = chunk
		}
		copy(chunk[o:], p[:n])
		off += uint64(n)
		p = p[n:]
	}
	return nil
}

func (c *ChunkStore) reset() {
	c.chunks = make(map[uint64][]byte)
}
