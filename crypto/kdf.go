// Package crypto provides the key derivation and authenticated encryption
// primitives for the silentlock credential vault.
package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"

	"github.com/jmcleod/silentlock/internal/util"
)

const (
	// KeySize is the size in bytes of a derived vault key (AES-256).
	KeySize = 32
	// SaltSize is the size in bytes of a key derivation salt.
	SaltSize = 16
	// MinIterations is the lowest iteration count accepted for derivation.
	// Vaults store their own count so it can be raised in future without
	// breaking existing files.
	MinIterations = 100_000
	// DefaultIterations is the iteration count used for new vaults.
	DefaultIterations = 600_000
)

// fingerprintContext is the fixed message HMAC'd under a derived key to
// produce a verifiable-but-non-reversible check value. It proves a key is
// correct without persisting the key itself.
var fingerprintContext = []byte("silentlock:fingerprint:v1")

// KDFParams configures PBKDF2-HMAC-SHA256 key derivation.
type KDFParams struct {
	Iterations uint32 `json:"iterations"`
	KeyLen     uint32 `json:"key_len"`
}

func DefaultKDFParams() KDFParams {
	return KDFParams{
		Iterations: DefaultIterations,
		KeyLen:     KeySize,
	}
}

// DeriveKey derives a symmetric key from a passphrase and salt using
// PBKDF2-HMAC-SHA256. The passphrase is NFKD-normalized first, so composed
// and decomposed Unicode input derive the same key. Identical inputs always
// yield identical output.
func DeriveKey(passphrase string, salt []byte, params KDFParams) ([]byte, error) {
	if params.KeyLen != KeySize {
		return nil, fmt.Errorf("kdf key length must be %d bytes", KeySize)
	}
	if params.Iterations == 0 {
		return nil, fmt.Errorf("kdf iteration count must not be zero")
	}
	if len(salt) == 0 {
		return nil, fmt.Errorf("kdf salt must not be empty")
	}
	normalized := []byte(util.Normalize(passphrase))
	defer util.WipeBytes(normalized)
	key := pbkdf2.Key(normalized, salt, int(params.Iterations), int(params.KeyLen), sha256.New)
	return key, nil
}

// GenerateSalt returns a fresh random salt. Called once per vault at
// creation, and again on master passphrase change.
func GenerateSalt() ([]byte, error) {
	return util.RandomBytes(SaltSize)
}

// Fingerprint computes the stored check value for a derived key.
func Fingerprint(key []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(fingerprintContext)
	return mac.Sum(nil)
}

// VerifyFingerprint reports whether key matches the stored fingerprint.
// The comparison is constant-time.
func VerifyFingerprint(key, fingerprint []byte) bool {
	expected := Fingerprint(key)
	defer util.WipeBytes(expected)
	return subtle.ConstantTimeCompare(expected, fingerprint) == 1
}
