package bb84

import (
	"crypto/rand"
	"encoding/binary"
)

// randomBits returns n uniform random bits, one per byte (0 or 1),
// drawn from crypto/rand.
func randomBits(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	for i := range buf {
		buf[i] &= 1
	}
	return buf, nil
}

// randomFloats returns n uniform random float64 values in [0, 1),
// drawn from crypto/rand. Each value uses 53 bits of entropy, the full
// precision of a float64 mantissa.
func randomFloats(n int) ([]float64, error) {
	buf := make([]byte, 8*n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		u := binary.BigEndian.Uint64(buf[8*i:]) >> 11
		out[i] = float64(u) / (1 << 53)
	}
	return out, nil
}
