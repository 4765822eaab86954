package vault

import (
	"time"

	"github.com/jmcleod/silentlock/crypto"
)

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKDFParams overrides the key derivation parameters used for new vaults
// and passphrase rotation. Existing vaults always unlock with their stored
// iteration count.
func WithKDFParams(params crypto.KDFParams) StoreOption {
	return func(s *Store) {
		s.kdfParams = params
	}
}

// WithMinPassphraseLength sets the passphrase policy floor.
func WithMinPassphraseLength(n int) StoreOption {
	return func(s *Store) {
		s.minPassphraseLen = n
	}
}

// WithIdleTimeout sets the session idle timeout. After the timeout elapses
// without activity the session locks itself and zeroes its key material.
// Zero disables the timeout.
func WithIdleTimeout(d time.Duration) StoreOption {
	return func(s *Store) {
		s.idleTimeout = d
	}
}
