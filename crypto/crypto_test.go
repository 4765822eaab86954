package crypto

import (
	"bytes"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key, err := DeriveKey("test-passphrase", []byte("0123456789abcdef"), KDFParams{Iterations: 1000, KeyLen: KeySize})
	if err != nil {
		t.Fatalf("DeriveKey failed: %v", err)
	}
	return key
}

func TestDeriveKey(t *testing.T) {
	salt := []byte("0123456789abcdef")
	params := KDFParams{Iterations: 1000, KeyLen: KeySize}

	t.Run("Deterministic", func(t *testing.T) {
		k1, err := DeriveKey("correct-horse-battery", salt, params)
		if err != nil {
			t.Fatalf("DeriveKey failed: %v", err)
		}
		k2, _ := DeriveKey("correct-horse-battery", salt, params)
		if !bytes.Equal(k1, k2) {
			t.Error("identical inputs must derive identical keys")
		}
		if len(k1) != KeySize {
			t.Errorf("expected %d-byte key, got %d", KeySize, len(k1))
		}
	})

	t.Run("EachInputChangesOutput", func(t *testing.T) {
		base, _ := DeriveKey("correct-horse-battery", salt, params)

		other, _ := DeriveKey("correct-horse-batterz", salt, params)
		if bytes.Equal(base, other) {
			t.Error("different passphrase must change the key")
		}

		other, _ = DeriveKey("correct-horse-battery", []byte("fedcba9876543210"), params)
		if bytes.Equal(base, other) {
			t.Error("different salt must change the key")
		}

		other, _ = DeriveKey("correct-horse-battery", salt, KDFParams{Iterations: 1001, KeyLen: KeySize})
		if bytes.Equal(base, other) {
			t.Error("different iteration count must change the key")
		}
	})

	t.Run("NormalizedUnicode", func(t *testing.T) {
		// Precomposed vs decomposed forms of the same passphrase.
		k1, _ := DeriveKey("café", salt, params)
		k2, _ := DeriveKey("café", salt, params)
		if !bytes.Equal(k1, k2) {
			t.Error("NFKD-equivalent passphrases must derive the same key")
		}
	})

	t.Run("RejectBadParams", func(t *testing.T) {
		if _, err := DeriveKey("pass", salt, KDFParams{Iterations: 1000, KeyLen: 16}); err == nil {
			t.Error("expected error for non-32-byte key length")
		}
		if _, err := DeriveKey("pass", salt, KDFParams{Iterations: 0, KeyLen: KeySize}); err == nil {
			t.Error("expected error for zero iterations")
		}
		if _, err := DeriveKey("pass", nil, params); err == nil {
			t.Error("expected error for empty salt")
		}
	})
}

func TestGenerateSalt(t *testing.T) {
	s1, err := GenerateSalt()
	if err != nil {
		t.Fatalf("GenerateSalt failed: %v", err)
	}
	if len(s1) != SaltSize {
		t.Errorf("expected %d-byte salt, got %d", SaltSize, len(s1))
	}
	s2, _ := GenerateSalt()
	if bytes.Equal(s1, s2) {
		t.Error("two generated salts should not be equal")
	}
}

func TestFingerprint(t *testing.T) {
	key := testKey(t)

	fp := Fingerprint(key)
	if !VerifyFingerprint(key, fp) {
		t.Error("fingerprint should verify against its own key")
	}

	wrong := testKey(t)
	wrong[0] ^= 0xFF
	if VerifyFingerprint(wrong, fp) {
		t.Error("fingerprint should not verify against a different key")
	}
}

func TestSealOpen(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("p@ss1")
	aad := AADCredential("example.com", "alice")

	t.Run("RoundTrip", func(t *testing.T) {
		box, err := Seal(key, plaintext, aad)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		if len(box.Nonce) != NonceSize {
			t.Errorf("expected %d-byte nonce, got %d", NonceSize, len(box.Nonce))
		}
		if len(box.Tag) != TagSize {
			t.Errorf("expected %d-byte tag, got %d", TagSize, len(box.Tag))
		}

		got, err := Open(key, box, aad)
		if err != nil {
			t.Fatalf("Open failed: %v", err)
		}
		if !bytes.Equal(plaintext, got) {
			t.Errorf("expected %q, got %q", plaintext, got)
		}
	})

	t.Run("TamperCiphertextBit", func(t *testing.T) {
		box, _ := Seal(key, plaintext, aad)
		box.Ciphertext[0] ^= 0x01
		if _, err := Open(key, box, aad); err != ErrAuthentication {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("TamperTagBit", func(t *testing.T) {
		box, _ := Seal(key, plaintext, aad)
		box.Tag[len(box.Tag)-1] ^= 0x80
		if _, err := Open(key, box, aad); err != ErrAuthentication {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("WrongAAD", func(t *testing.T) {
		box, _ := Seal(key, plaintext, aad)
		if _, err := Open(key, box, AADCredential("example.com", "bob")); err != ErrAuthentication {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("WrongKey", func(t *testing.T) {
		box, _ := Seal(key, plaintext, aad)
		other := testKey(t)
		other[5] ^= 0xFF
		if _, err := Open(other, box, aad); err != ErrAuthentication {
			t.Errorf("expected ErrAuthentication, got %v", err)
		}
	})

	t.Run("RejectBadKeySize", func(t *testing.T) {
		if _, err := Seal([]byte("too short"), plaintext, aad); err == nil {
			t.Error("expected error for short key")
		}
	})
}

func TestSealNonceUniqueness(t *testing.T) {
	key := testKey(t)
	plaintext := []byte("same plaintext every time")

	seen := make(map[string]struct{}, 10000)
	for i := 0; i < 10000; i++ {
		box, err := Seal(key, plaintext, nil)
		if err != nil {
			t.Fatalf("Seal failed: %v", err)
		}
		n := string(box.Nonce)
		if _, ok := seen[n]; ok {
			t.Fatalf("nonce collision after %d seals", i)
		}
		seen[n] = struct{}{}
	}
}
