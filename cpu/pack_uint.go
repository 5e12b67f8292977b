package cpu

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

// Varnodes are arbitrary sized byte ranges, so sized accesses must
// handle every width from 1 to 8, not just the power-of-two ones. The
// value is laid out at full width first, then the occupied end is
// taken: the low bytes for little endian, the high bytes for big.

func PackUint(order binary.ByteOrder, size int, buf []byte, n uint64) ([]byte, error) {
	if size < 1 || size > 8 {
		return nil, errors.Errorf("unsupported uint size: %d", size)
	}
	if buf == nil {
		buf = make([]byte, size)
	} else if len(buf) < size {
		return nil, errors.Errorf("buffer too small (%d < %d)", len(buf), size)
	}
	var tmp [8]byte
	order.PutUint64(tmp[:], n)
	if order == binary.BigEndian {
		copy(buf[:size], tmp[8-size:])
	} else {
		copy(buf[:size], tmp[:size])
	}
	return buf[:size], nil
}

func UnpackUint(order binary.ByteOrder, size int, buf []byte) (uint64, error) {
	if size < 1 || size > 8 {
		return 0, errors.Errorf("unsupported uint size: %d", size)
	}
	if len(buf) < size {
		return 0, errors.Errorf("buffer too small (%d < %d)", len(buf), size)
	}
	var tmp [8]byte
	if order == binary.BigEndian {
		copy(tmp[8-size:], buf[:size])
	} else {
		copy(tmp[:size], buf[:size])
	}
	return order.Uint64(tmp[:]), nil
}
