package crypto

import (
	"crypto/sha256"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

// SessionKeyLength is the derived session key length in bytes (AES-256).
const SessionKeyLength = 32

// Errors
var (
	// ErrEmptyKeyMaterial is returned when derivation input is empty.
	ErrEmptyKeyMaterial = errors.New("crypto: empty input key material")

	// ErrEmptyLabel is returned when a derivation label is empty.
	// Labels provide domain separation and must never be omitted.
	ErrEmptyLabel = errors.New("crypto: empty derivation label")
)

// HKDFSHA256 derives key material using HKDF-SHA256 (RFC 5869).
//
// Parameters:
//   - inputKey: Input keying material (IKM)
//   - salt: Optional salt value (can be nil or empty)
//   - info: Optional context/application-specific info (can be nil or empty)
//   - length: Number of bytes to derive
//
// Returns the derived key material of the specified length.
func HKDFSHA256(inputKey, salt, info []byte, length int) ([]byte, error) {
	// HKDF = HKDF-Expand(PRK := HKDF-Extract(salt, IKM), info, L)
	reader := hkdf.New(sha256.New, inputKey, salt, info)
	result := make([]byte, length)
	if _, err := io.ReadFull(reader, result); err != nil {
		return nil, err
	}
	return result, nil
}

// DeriveSessionKey derives a 32-byte session key from raw quantum key
// material. The label provides domain separation: keys derived for
// different sessions or participant pairs never collide even when the
// raw material happens to repeat. HKDF also smooths out any residual
// bias in the raw bits.
//
// The label doubles as the HKDF info parameter; salt is unused.
func DeriveSessionKey(rawKey []byte, label string) ([]byte, error) {
	if len(rawKey) == 0 {
		return nil, ErrEmptyKeyMaterial
	}
	if label == "" {
		return nil, ErrEmptyLabel
	}
	return HKDFSHA256(rawKey, nil, []byte(label), SessionKeyLength)
}
