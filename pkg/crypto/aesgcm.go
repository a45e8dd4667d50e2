// AES-256-GCM wrapper for field-device payload encryption.
// Session keys derived by the KMS are consumed here; the AEAD itself is
// the standard library implementation (NIST 800-38D).

package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"errors"
)

// AES-GCM parameters.
const (
	// AESGCMKeySize is the AES-256 key size in bytes.
	AESGCMKeySize = 32

	// AESGCMNonceSize is the GCM nonce size in bytes.
	AESGCMNonceSize = 12
)

// Errors
var (
	ErrAESGCMInvalidKeySize   = errors.New("aesgcm: invalid key size, must be 32 bytes")
	ErrAESGCMInvalidNonceSize = errors.New("aesgcm: invalid nonce size, must be 12 bytes")
	ErrAESGCMAuthFailed       = errors.New("aesgcm: message authentication failed")
)

// AESGCMEncrypt encrypts and authenticates plaintext with AES-256-GCM
// under a fresh random nonce.
//
// Parameters:
//   - key: 32-byte AES-256 key
//   - plaintext: data to encrypt
//   - aad: additional authenticated data (not encrypted, may be nil)
//
// Returns the generated 12-byte nonce and ciphertext || tag.
func AESGCMEncrypt(key, plaintext, aad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, nil, err
	}

	nonce, err = RandomBytes(AESGCMNonceSize)
	if err != nil {
		return nil, nil, err
	}

	return nonce, aead.Seal(nil, nonce, plaintext, aad), nil
}

// AESGCMDecrypt decrypts and verifies ciphertext produced by AESGCMEncrypt.
// Returns ErrAESGCMAuthFailed if the tag does not verify; no plaintext is
// ever returned from a failed authentication.
func AESGCMDecrypt(key, nonce, ciphertext, aad []byte) ([]byte, error) {
	aead, err := newAESGCM(key)
	if err != nil {
		return nil, err
	}
	if len(nonce) != AESGCMNonceSize {
		return nil, ErrAESGCMInvalidNonceSize
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrAESGCMAuthFailed
	}
	return plaintext, nil
}

func newAESGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != AESGCMKeySize {
		return nil, ErrAESGCMInvalidKeySize
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
