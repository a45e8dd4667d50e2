package crypto

import (
	"bytes"
	"testing"
)

func TestHybridizeKey(t *testing.T) {
	baseKey := make([]byte, 32)
	for i := range baseKey {
		baseKey[i] = byte(i * 3)
	}

	t.Run("output length", func(t *testing.T) {
		key, err := HybridizeKey(baseKey)
		if err != nil {
			t.Fatalf("HybridizeKey failed: %v", err)
		}
		if len(key) != SessionKeyLength {
			t.Errorf("len(key) = %d, want %d", len(key), SessionKeyLength)
		}
	})

	t.Run("output differs from input", func(t *testing.T) {
		key, err := HybridizeKey(baseKey)
		if err != nil {
			t.Fatalf("HybridizeKey failed: %v", err)
		}
		if bytes.Equal(key, baseKey) {
			t.Error("hybridized key equals input key")
		}
	})

	t.Run("fresh KEM secret per call", func(t *testing.T) {
		key1, err := HybridizeKey(baseKey)
		if err != nil {
			t.Fatalf("HybridizeKey failed: %v", err)
		}
		key2, err := HybridizeKey(baseKey)
		if err != nil {
			t.Fatalf("HybridizeKey failed: %v", err)
		}
		if bytes.Equal(key1, key2) {
			t.Error("two hybridizations of the same key agree; KEM secret not fresh")
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		input := make([]byte, 32)
		copy(input, baseKey)
		if _, err := HybridizeKey(input); err != nil {
			t.Fatalf("HybridizeKey failed: %v", err)
		}
		if !bytes.Equal(input, baseKey) {
			t.Error("HybridizeKey mutated its input")
		}
	})

	t.Run("rejects empty key", func(t *testing.T) {
		_, err := HybridizeKey(nil)
		if err != ErrEmptyKeyMaterial {
			t.Errorf("error = %v, want ErrEmptyKeyMaterial", err)
		}
	})
}

func BenchmarkHybridizeKey(b *testing.B) {
	key := make([]byte, 32)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = HybridizeKey(key)
	}
}
