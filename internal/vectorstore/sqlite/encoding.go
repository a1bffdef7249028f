package sqlite

import (
	"encoding/binary"
	"fmt"
	"math"

	"ragkb/internal/domain"
)

// encodeVector packs v as little-endian IEEE 754 float64 values with no
// length prefix. A nil vector encodes to nil so it is stored as NULL.
func encodeVector(v domain.Vector) []byte {
	if v == nil {
		return nil
	}
	b := make([]byte, len(v)*8)
	for i, x := range v {
		binary.LittleEndian.PutUint64(b[i*8:], math.Float64bits(x))
	}
	return b
}

// decodeVector reverses encodeVector. dims is the stored component count,
// which keeps a zero-length vector distinct from a quarantined one.
func decodeVector(b []byte, dims int) (domain.Vector, error) {
	if len(b)%8 != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d (not multiple of 8)", len(b))
	}
	if n := len(b) / 8; n != dims {
		return nil, fmt.Errorf("embedding blob holds %d components, expected %d", n, dims)
	}
	v := make(domain.Vector, dims)
	for i := range v {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v, nil
}
