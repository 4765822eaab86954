package vault

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jmcleod/silentlock/crypto"
	"github.com/jmcleod/silentlock/internal/util"
	"github.com/jmcleod/silentlock/storage"
)

// DefaultMinPassphraseLength is the passphrase policy floor for new vaults.
const DefaultMinPassphraseLength = 8

// Store is the credential store for one vault file. It owns the on-disk
// schema, duplicate detection, and write exclusion: mutating operations are
// serialized behind a single writer lock while readers proceed concurrently
// with each other.
//
// All credential access goes through a Session obtained from Initialize or
// Unlock.
type Store struct {
	repo storage.Repository

	// mu is the read/write exclusion for the shared vault state. Record
	// counts are small, so coarse store-level locking is deliberate.
	mu sync.RWMutex

	kdfParams        crypto.KDFParams
	minPassphraseLen int
	idleTimeout      time.Duration
	now              func() time.Time
}

// New creates a Store over the given repository.
func New(repo storage.Repository, opts ...StoreOption) *Store {
	s := &Store{
		repo:             repo,
		kdfParams:        crypto.DefaultKDFParams(),
		minPassphraseLen: DefaultMinPassphraseLength,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	// Policy floor for new vaults and rotation. Existing vaults unlock with
	// whatever count they were created with.
	if s.kdfParams.Iterations < crypto.MinIterations {
		s.kdfParams.Iterations = crypto.MinIterations
	}
	return s
}

// Initialized reports whether master key material exists yet.
func (s *Store) Initialized() (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, err := s.repo.LoadMasterKey()
	if errors.Is(err, storage.ErrNotInitialized) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Initialize creates a new vault protected by the given passphrase and
// returns an unlocked session. It fails with ErrAlreadyInitialized if key
// material already exists, and with ErrWeakPassphrase (before any
// derivation work) if the passphrase is below the configured minimum.
func (s *Store) Initialize(ctx context.Context, passphrase string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(passphrase) < s.minPassphraseLen {
		return nil, fmt.Errorf("%w (minimum %d characters)", ErrWeakPassphrase, s.minPassphraseLen)
	}

	salt, err := crypto.GenerateSalt()
	if err != nil {
		return nil, err
	}
	key, err := crypto.DeriveKey(passphrase, salt, s.kdfParams)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		util.WipeBytes(key)
		return nil, err
	}

	mk := &storage.MasterKey{
		Salt:        salt,
		Iterations:  s.kdfParams.Iterations,
		Fingerprint: crypto.Fingerprint(key),
		CreatedAt:   s.now(),
		Ver:         1,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.SaveMasterKey(mk); err != nil {
		util.WipeBytes(key)
		return nil, err
	}
	if err := s.appendAudit(opInit, 0, ""); err != nil {
		return nil, err
	}
	return s.newSession(key), nil
}

// Unlock re-derives the key from the stored salt and iteration count,
// verifies it against the stored fingerprint in constant time, and returns
// an unlocked session. A wrong passphrase fails with
// ErrAuthenticationFailed and leaves the stored data untouched.
//
// Derivation is pure: cancelling ctx before the fingerprint check commits
// the session transition is always safe.
func (s *Store) Unlock(ctx context.Context, passphrase string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	mk, err := s.repo.LoadMasterKey()
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	key, err := crypto.DeriveKey(passphrase, mk.Salt, crypto.KDFParams{
		Iterations: mk.Iterations,
		KeyLen:     crypto.KeySize,
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		util.WipeBytes(key)
		return nil, err
	}

	if !crypto.VerifyFingerprint(key, mk.Fingerprint) {
		util.WipeBytes(key)
		return nil, ErrAuthenticationFailed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.appendAudit(opUnlock, 0, ""); err != nil {
		return nil, err
	}
	return s.newSession(key), nil
}

// appendAudit records an audit event. Callers must hold the write lock.
func (s *Store) appendAudit(op string, recordID uint64, detail string) error {
	return s.repo.AppendAudit(&storage.AuditEvent{
		ID:       uuid.NewString(),
		At:       s.now(),
		Op:       op,
		RecordID: recordID,
		Detail:   detail,
	})
}

// listRecords loads all stored rows as Records. Callers must hold at least
// the read lock.
func (s *Store) listRecords() ([]Record, error) {
	rows, err := s.repo.List()
	if err != nil {
		return nil, err
	}
	records := make([]Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, recordFromStorage(row))
	}
	return records, nil
}
