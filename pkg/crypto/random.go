package crypto

import "crypto/rand"

// RandomBytes returns n cryptographically secure random bytes.
func RandomBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Zeroize overwrites key material with zeros. Callers use this when a
// session ends so keys never outlive their session in memory.
func Zeroize(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
