package crypto

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/cloudflare/circl/kem/mlkem/mlkem768"
)

// hybridLabel is the domain-separation label for hybrid re-derivation.
const hybridLabel = "qkd-hybrid-v1"

// ErrHybridMismatch is returned when ML-KEM decapsulation does not
// reproduce the encapsulated secret. This indicates a broken KEM
// implementation and must abort key issuance.
var ErrHybridMismatch = errors.New("crypto: hybrid shared secret mismatch")

// HybridizeKey strengthens a quantum-derived key with a post-quantum KEM
// secret. Both endpoints of an ML-KEM-768 (FIPS 203) exchange run locally,
// mirroring how the channel simulation models both protocol parties: a key
// pair is generated, a shared secret is encapsulated against the public
// key, and the private key decapsulates it back.
//
// The result is HKDF-SHA256(key || pqSecret) re-derived to 32 bytes, so
// the output is never weaker than the input key alone.
func HybridizeKey(key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, ErrEmptyKeyMaterial
	}

	scheme := mlkem768.Scheme()

	pk, sk, err := scheme.GenerateKeyPair()
	if err != nil {
		return nil, fmt.Errorf("ML-KEM key generation failed: %w", err)
	}

	ciphertext, secret, err := scheme.Encapsulate(pk)
	if err != nil {
		return nil, fmt.Errorf("ML-KEM encapsulation failed: %w", err)
	}

	// Receiver side: recover the secret from the ciphertext.
	recovered, err := scheme.Decapsulate(sk, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ML-KEM decapsulation failed: %w", err)
	}
	if subtle.ConstantTimeCompare(secret, recovered) != 1 {
		return nil, ErrHybridMismatch
	}

	combined := make([]byte, 0, len(key)+len(secret))
	combined = append(combined, key...)
	combined = append(combined, secret...)
	defer Zeroize(combined)

	return HKDFSHA256(combined, nil, []byte(hybridLabel), SessionKeyLength)
}
