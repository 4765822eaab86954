package vault

import (
	"errors"
	"fmt"

	"github.com/jmcleod/silentlock/crypto"
	"github.com/jmcleod/silentlock/storage"
)

var (
	// ErrInvalidRecord indicates a malformed candidate, rejected before any
	// encryption or storage attempt.
	ErrInvalidRecord = errors.New("invalid credential")
	// ErrAuthenticationFailed indicates a wrong passphrase or tampered
	// ciphertext. The two causes are intentionally indistinguishable.
	ErrAuthenticationFailed = crypto.ErrAuthentication
	// ErrDuplicateRecord indicates an exact duplicate blocked a write.
	// Use errors.As with *DuplicateError to recover the existing record ID.
	ErrDuplicateRecord = errors.New("duplicate credential")
	// ErrNotFound indicates the operation referenced a nonexistent record.
	ErrNotFound = errors.New("credential not found")
	// ErrSessionLocked indicates an operation was attempted without an
	// unlocked session.
	ErrSessionLocked = errors.New("session is locked")
	// ErrWeakPassphrase indicates the passphrase is below the configured
	// minimum length. Checked before derivation.
	ErrWeakPassphrase = errors.New("passphrase below minimum length")

	// ErrAlreadyInitialized and ErrNotInitialized mirror the storage layer.
	ErrAlreadyInitialized = storage.ErrAlreadyInitialized
	ErrNotInitialized     = storage.ErrNotInitialized
)

// DuplicateError is returned when an Add hits an exact duplicate. The store
// never silently overwrites; the caller decides whether to update, keep
// both, or cancel.
type DuplicateError struct {
	ExistingID uint64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("duplicate credential: matches existing record %d", e.ExistingID)
}

func (e *DuplicateError) Unwrap() error {
	return ErrDuplicateRecord
}

func validationErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRecord, fmt.Sprintf(format, args...))
}

// notFound rewraps storage-level not-found errors into the vault taxonomy.
func notFound(id uint64, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return fmt.Errorf("credential %d: %w", id, ErrNotFound)
	}
	return err
}
