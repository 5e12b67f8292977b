package cpu

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"io"

	"github.com/golang/snappy"
	"github.com/lunixbochs/struc"
	"github.com/pkg/errors"

	"github.com/lunixbochs/pcode/pcode"
)

// context blob format:
//
// uint32(magic "PCTX")
// uint32(format version)
// uint32(crc32 of compressed body)
// uint32(length of compressed body)
// remainder is snappy-compressed
//
// -- uncompressed body start --
// uint8(byte order: 0 little, 1 big)
// string(default space name)
// uint32(number of spaces)
// 1..num:
//   string(space name)
//   uint8(store kind: 0 dense, 1 chunked)
//   dense:   uint64(bound), uint64(used), <used raw bytes>
//   chunked: uint32(number of chunks), 1..num: uint64(offset), <chunk bytes>
//
// strings are uint32(len) + raw bytes

const contextMagic = 0x50435458 // "PCTX"
const contextVersion = 1

const (
	storeDense   = 0
	storeChunked = 1
)

type strucStream struct {
	stream io.ReadWriter
	opts   *struc.Options
}

func newStrucStream(rw io.ReadWriter) *strucStream {
	return &strucStream{rw, &struc.Options{Order: binary.BigEndian}}
}

func (s *strucStream) pack(vals ...interface{}) error {
	for _, v := range vals {
		if err := struc.PackWithOptions(s.stream, v, s.opts); err != nil {
			return err
		}
	}
	return nil
}

func (s *strucStream) unpack(vals ...interface{}) error {
	for _, v := range vals {
		if err := struc.UnpackWithOptions(s.stream, v, s.opts); err != nil {
			return err
		}
	}
	return nil
}

func (s *strucStream) packString(v string) error {
	if err := s.pack(uint32(len(v))); err != nil {
		return err
	}
	_, err := s.stream.Write([]byte(v))
	return err
}

func (s *strucStream) unpackString() (string, error) {
	var size uint32
	if err := s.unpack(&size); err != nil {
		return "", err
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(s.stream, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// SaveContext snapshots every store owned by a space manager into a
// self-describing compressed blob. This is in-memory state capture for
// rewind/fork, not a loader format; nothing outside the spaces (hooks,
// handlers) is included.
func SaveContext(m *SpaceManager) ([]byte, error) {
	var body bytes.Buffer
	s := newStrucStream(&body)

	order := uint8(0)
	if m.order == binary.BigEndian {
		order = 1
	}
	if err := s.pack(order); err != nil {
		return nil, err
	}
	if err := s.packString(string(m.defaultName)); err != nil {
		return nil, err
	}
	if err := s.pack(uint32(len(m.spaces))); err != nil {
		return nil, err
	}
	for name, store := range m.spaces {
		if err := s.packString(string(name)); err != nil {
			return nil, err
		}
		switch st := store.(type) {
		case *BlobStore:
			used := st.used()
			if err := s.pack(uint8(storeDense), st.Size(), used); err != nil {
				return nil, err
			}
			if _, err := body.Write(st.data[:used]); err != nil {
				return nil, err
			}
		case *ChunkStore:
			if err := s.pack(uint8(storeChunked), uint32(len(st.chunks))); err != nil {
				return nil, err
			}
			for off, chunk := range st.chunks {
				if err := s.pack(off); err != nil {
					return nil, err
				}
				if _, err := body.Write(chunk); err != nil {
					return nil, err
				}
			}
		default:
			return nil, errors.Errorf("space %q: unknown store type %T", name, store)
		}
	}

	data := snappy.Encode(nil, body.Bytes())
	var final bytes.Buffer
	s = newStrucStream(&final)
	err := s.pack(uint32(contextMagic), uint32(contextVersion),
		crc32.ChecksumIEEE(data), uint32(len(data)))
	if err != nil {
		return nil, err
	}
	final.Write(data)
	return final.Bytes(), nil
}

// RestoreContext loads a SaveContext blob back into a manager built
// with the same space set. Every store is reset before its saved
// content is applied; a space in the blob that the manager doesn't
// know is an error.
func RestoreContext(m *SpaceManager, blob []byte) error {
	buf := bytes.NewBuffer(blob)
	s := newStrucStream(buf)

	var magic, version, crc, size uint32
	if err := s.unpack(&magic, &version, &crc, &size); err != nil {
		return errors.Wrap(err, "short context header")
	}
	if magic != contextMagic {
		return errors.New("bad context magic")
	}
	if version != contextVersion {
		return errors.Errorf("unsupported context version %d", version)
	}
	data := buf.Bytes()
	if uint32(len(data)) != size {
		return errors.Errorf("context body length mismatch: %d != %d", len(data), size)
	}
	if crc32.ChecksumIEEE(data) != crc {
		return errors.New("context crc mismatch")
	}
	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return errors.Wrap(err, "context decompress failed")
	}

	body := bytes.NewBuffer(raw)
	s = newStrucStream(body)
	var order uint8
	if err := s.unpack(&order); err != nil {
		return err
	}
	wantOrder := uint8(0)
	if m.order == binary.BigEndian {
		wantOrder = 1
	}
	if order != wantOrder {
		return errors.New("context byte order mismatch")
	}
	defName, err := s.unpackString()
	if err != nil {
		return err
	}
	if pcode.SpaceName(defName) != m.defaultName {
		return errors.Errorf("context default space %q != %q", defName, m.defaultName)
	}
	var count uint32
	if err := s.unpack(&count); err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		name, err := s.unpackString()
		if err != nil {
			return err
		}
		store, ok := m.spaces[pcode.SpaceName(name)]
		if !ok {
			return errors.Errorf("context space %q not in manager", name)
		}
		var kind uint8
		if err := s.unpack(&kind); err != nil {
			return err
		}
		switch kind {
		case storeDense:
			st, ok := store.(*BlobStore)
			if !ok {
				return errors.Errorf("space %q: dense context for %T store", name, store)
			}
			var bound, used uint64
			if err := s.unpack(&bound, &used); err != nil {
				return err
			}
			if bound != st.Size() {
				return errors.Errorf("space %q: bound mismatch %#x != %#x", name, bound, st.Size())
			}
			if used > bound {
				return errors.Errorf("space %q: used %#x beyond bound", name, used)
			}
			st.reset()
			if _, err := io.ReadFull(body, st.data[:used]); err != nil {
				return err
			}
			st.high = used
		case storeChunked:
			st, ok := store.(*ChunkStore)
			if !ok {
				return errors.Errorf("space %q: chunked context for %T store", name, store)
			}
			var chunks uint32
			if err := s.unpack(&chunks); err != nil {
				return err
			}
			st.reset()
			for j := uint32(0); j < chunks; j++ {
				var off uint64
				if err := s.unpack(&off); err != nil {
					return err
				}
				chunk := make([]byte, chunkSize)
				if _, err := io.ReadFull(body, chunk); err != nil {
					return err
				}
				st.chunks[off] = chunk
			}
		default:
			return errors.Errorf("space %q: unknown store kind %d", name, kind)
		}
	}
	return nil
}
