package vault

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/google/uuid"

	"github.com/jmcleod/silentlock/crypto"
	"github.com/jmcleod/silentlock/internal/util"
	"github.com/jmcleod/silentlock/storage"
)

// Session is the unlocked state of a vault. It holds the derived key in a
// memguard enclave and mediates all store access: no credential operation
// is possible without an unlocked session.
//
// Sessions move Locked -> Unlocked on a successful Initialize/Unlock and
// back on Lock, idle timeout, or process exit. Every operation re-validates
// the unlocked state, so a timeout racing a pending call is caught at the
// call boundary; an operation already past that boundary completes with the
// key copy it holds.
type Session struct {
	store      *Store
	id         string
	unlockedAt time.Time

	mu         sync.Mutex
	key        *memguard.Enclave
	lastActive time.Time
	locked     bool
}

// newSession wraps a freshly derived key. The key slice is consumed (wiped)
// by the enclave.
func (s *Store) newSession(key []byte) *Session {
	now := s.now()
	return &Session{
		store:      s,
		id:         uuid.NewString(),
		unlockedAt: now,
		key:        memguard.NewEnclave(key),
		lastActive: now,
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// UnlockedAt returns the time the session was unlocked.
func (s *Session) UnlockedAt() time.Time {
	return s.unlockedAt
}

// Locked reports whether the session has locked, either explicitly or by
// idle timeout.
func (s *Session) Locked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.locked && s.expired(s.store.now()) {
		s.lockLocked()
	}
	return s.locked
}

// Lock transitions the session to Locked and drops its key material. Safe
// to call more than once.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockLocked()
}

// Close is an alias for Lock, for use with defer.
func (s *Session) Close() {
	s.Lock()
}

func (s *Session) lockLocked() {
	s.locked = true
	s.key = nil
}

func (s *Session) expired(now time.Time) bool {
	timeout := s.store.idleTimeout
	return timeout > 0 && now.Sub(s.lastActive) > timeout
}

// ensureUnlocked validates the session state and refreshes the activity
// timestamp. An expired session locks itself here, before any work starts.
func (s *Session) ensureUnlocked() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked {
		return ErrSessionLocked
	}
	now := s.store.now()
	if s.expired(now) {
		s.lockLocked()
		return ErrSessionLocked
	}
	s.lastActive = now
	return nil
}

// openKey returns an unlocked copy of the session key. Callers must
// Destroy the buffer when done.
func (s *Session) openKey() (*memguard.LockedBuffer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.locked || s.key == nil {
		return nil, ErrSessionLocked
	}
	buf, err := s.key.Open()
	if err != nil {
		return nil, fmt.Errorf("opening key enclave: %w", err)
	}
	return buf, nil
}

// Add runs duplicate detection and stores a new credential. An exact
// duplicate fails with a DuplicateError carrying the existing record's ID;
// the store never silently overwrites. Similar-domain and username-reuse
// hits are returned as advisory matches alongside the new ID.
func (s *Session) Add(ctx context.Context, cand Candidate) (uint64, []Match, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return 0, nil, err
	}
	if err := validateCandidate(&cand); err != nil {
		return 0, nil, err
	}
	if cand.Source == "" {
		cand.Source = SourceManual
	}

	keyBuf, err := s.openKey()
	if err != nil {
		return 0, nil, err
	}
	defer keyBuf.Destroy()

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	existing, err := st.listRecords()
	if err != nil {
		return 0, nil, err
	}
	var advisories []Match
	for _, m := range matchCandidate(existing, cand.SiteURL, cand.Username) {
		if m.Kind == MatchExact {
			return 0, nil, &DuplicateError{ExistingID: m.Record.ID}
		}
		advisories = append(advisories, m)
	}

	aad := crypto.AADCredential(NormalizeSiteURL(cand.SiteURL), cand.Username)
	box, err := crypto.Seal(keyBuf.Bytes(), []byte(cand.Password), aad)
	if err != nil {
		return 0, nil, err
	}

	now := st.now()
	createdAt := now
	if !cand.DetectedAt.IsZero() {
		createdAt = cand.DetectedAt
	}
	id, err := st.repo.Insert(&storage.Credential{
		SiteName:   cand.SiteName,
		SiteURL:    cand.SiteURL,
		Username:   cand.Username,
		Nonce:      box.Nonce,
		Ciphertext: box.Ciphertext,
		Tag:        box.Tag,
		Notes:      cand.Notes,
		Source:     string(cand.Source),
		CreatedAt:  createdAt,
		LastUsedAt: now,
	})
	if err != nil {
		return 0, nil, err
	}
	if err := st.appendAudit(opAdd, id, string(cand.Source)); err != nil {
		return 0, nil, err
	}
	return id, advisories, nil
}

// Update edits a stored credential. The secret is always re-sealed with a
// fresh nonce, whether or not the password changed, so the ciphertext and
// its context binding stay current.
func (s *Session) Update(ctx context.Context, id uint64, upd RecordUpdate) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureUnlocked(); err != nil {
		return err
	}

	keyBuf, err := s.openKey()
	if err != nil {
		return err
	}
	defer keyBuf.Destroy()

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	row, err := st.repo.Get(id)
	if err != nil {
		return notFound(id, err)
	}

	cand := Candidate{
		SiteName: row.SiteName,
		SiteURL:  row.SiteURL,
		Username: row.Username,
		Notes:    row.Notes,
		Source:   Source(row.Source),
	}
	if upd.SiteName != nil {
		cand.SiteName = *upd.SiteName
	}
	if upd.SiteURL != nil {
		cand.SiteURL = *upd.SiteURL
	}
	if upd.Username != nil {
		cand.Username = *upd.Username
	}
	if upd.Notes != nil {
		cand.Notes = *upd.Notes
	}
	if upd.Password != nil {
		cand.Password = *upd.Password
	} else {
		oldAAD := crypto.AADCredential(NormalizeSiteURL(row.SiteURL), row.Username)
		plaintext, err := crypto.Open(keyBuf.Bytes(), &crypto.SecretBox{
			Nonce:      row.Nonce,
			Ciphertext: row.Ciphertext,
			Tag:        row.Tag,
		}, oldAAD)
		if err != nil {
			return fmt.Errorf("credential %d: %w", id, err)
		}
		cand.Password = string(plaintext)
		util.WipeBytes(plaintext)
	}

	if err := validateCandidate(&cand); err != nil {
		return err
	}

	aad := crypto.AADCredential(NormalizeSiteURL(cand.SiteURL), cand.Username)
	box, err := crypto.Seal(keyBuf.Bytes(), []byte(cand.Password), aad)
	if err != nil {
		return err
	}

	row.SiteName = cand.SiteName
	row.SiteURL = cand.SiteURL
	row.Username = cand.Username
	row.Notes = cand.Notes
	row.Nonce = box.Nonce
	row.Ciphertext = box.Ciphertext
	row.Tag = box.Tag
	row.LastUsedAt = st.now()

	if err := st.repo.Update(row); err != nil {
		return notFound(id, err)
	}
	return st.appendAudit(opUpdate, id, "")
}

// Delete removes a credential permanently. There is no soft delete.
func (s *Session) Delete(ctx context.Context, id uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureUnlocked(); err != nil {
		return err
	}

	st := s.store
	st.mu.Lock()
	defer st.mu.Unlock()

	if err := st.repo.Delete(id); err != nil {
		return notFound(id, err)
	}
	return st.appendAudit(opDelete, id, "")
}

// Get returns a single record with its secret still sealed.
func (s *Session) Get(ctx context.Context, id uint64) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return Record{}, err
	}

	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	row, err := st.repo.Get(id)
	if err != nil {
		return Record{}, notFound(id, err)
	}
	return recordFromStorage(row), nil
}

// List returns all records, secrets sealed, ordered by site name then
// username.
func (s *Session) List(ctx context.Context) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}

	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	records, err := st.listRecords()
	if err != nil {
		return nil, err
	}
	slices.SortFunc(records, func(a, b Record) int {
		if c := strings.Compare(a.SiteName, b.SiteName); c != 0 {
			return c
		}
		return strings.Compare(a.Username, b.Username)
	})
	return records, nil
}

// FindByURL returns the records whose normalized site URL matches the
// given URL or domain, most recently used first, secrets still sealed.
func (s *Session) FindByURL(ctx context.Context, urlOrDomain string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}

	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	records, err := st.listRecords()
	if err != nil {
		return nil, err
	}

	host := NormalizeSiteURL(urlOrDomain)
	var found []Record
	for _, rec := range records {
		if NormalizeSiteURL(rec.SiteURL) == host {
			found = append(found, rec)
		}
	}
	slices.SortFunc(found, func(a, b Record) int {
		return b.LastUsedAt.Compare(a.LastUsedAt)
	})
	return found, nil
}

// Check runs duplicate detection for a candidate without writing anything.
// All match kinds are returned, exact included.
func (s *Session) Check(ctx context.Context, cand Candidate) ([]Match, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}

	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()

	records, err := st.listRecords()
	if err != nil {
		return nil, err
	}
	return matchCandidate(records, cand.SiteURL, strings.TrimSpace(cand.Username)), nil
}

// Reveal decrypts a credential's secret on demand and updates its
// last-used timestamp. The plaintext is never cached; the caller should
// wipe it when done. A tag mismatch on one record fails that record only.
func (s *Session) Reveal(ctx context.Context, id uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}

	keyBuf, err := s.openKey()
	if err != nil {
		return nil, err
	}
	defer keyBuf.Destroy()

	st := s.store
	st.mu.RLock()
	row, err := st.repo.Get(id)
	if err != nil {
		st.mu.RUnlock()
		return nil, notFound(id, err)
	}
	aad := crypto.AADCredential(NormalizeSiteURL(row.SiteURL), row.Username)
	plaintext, err := crypto.Open(keyBuf.Bytes(), &crypto.SecretBox{
		Nonce:      row.Nonce,
		Ciphertext: row.Ciphertext,
		Tag:        row.Tag,
	}, aad)
	st.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("credential %d: %w", id, err)
	}

	st.mu.Lock()
	err = st.repo.Touch(id, st.now())
	if err == nil {
		err = st.appendAudit(opReveal, id, "")
	}
	st.mu.Unlock()
	if err != nil {
		util.WipeBytes(plaintext)
		return nil, err
	}
	return plaintext, nil
}

// ChangePassphrase rotates the master passphrase: it derives a new key
// from a fresh salt, re-seals every record with fresh nonces fully in
// memory, then swaps key material and records into storage in one atomic
// step. The session continues with the new key.
func (s *Session) ChangePassphrase(ctx context.Context, newPassphrase string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.ensureUnlocked(); err != nil {
		return err
	}
	if len(newPassphrase) < s.store.minPassphraseLen {
		return fmt.Errorf("%w (minimum %d characters)", ErrWeakPassphrase, s.store.minPassphraseLen)
	}

	keyBuf, err := s.openKey()
	if err != nil {
		return err
	}
	defer keyBuf.Destroy()

	st := s.store

	newSalt, err := crypto.GenerateSalt()
	if err != nil {
		return err
	}
	newKey, err := crypto.DeriveKey(newPassphrase, newSalt, st.kdfParams)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		util.WipeBytes(newKey)
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	rows, err := st.repo.List()
	if err != nil {
		util.WipeBytes(newKey)
		return err
	}

	reencrypted := make([]*storage.Credential, 0, len(rows))
	for _, row := range rows {
		aad := crypto.AADCredential(NormalizeSiteURL(row.SiteURL), row.Username)
		plaintext, err := crypto.Open(keyBuf.Bytes(), &crypto.SecretBox{
			Nonce:      row.Nonce,
			Ciphertext: row.Ciphertext,
			Tag:        row.Tag,
		}, aad)
		if err != nil {
			util.WipeBytes(newKey)
			return fmt.Errorf("credential %d: %w", row.ID, err)
		}
		box, err := crypto.Seal(newKey, plaintext, aad)
		util.WipeBytes(plaintext)
		if err != nil {
			util.WipeBytes(newKey)
			return err
		}
		cp := *row
		cp.Nonce = box.Nonce
		cp.Ciphertext = box.Ciphertext
		cp.Tag = box.Tag
		reencrypted = append(reencrypted, &cp)
	}

	mk := &storage.MasterKey{
		Salt:        newSalt,
		Iterations:  st.kdfParams.Iterations,
		Fingerprint: crypto.Fingerprint(newKey),
		CreatedAt:   st.now(),
		Ver:         1,
	}
	if err := st.repo.Replace(mk, reencrypted); err != nil {
		util.WipeBytes(newKey)
		return err
	}
	if err := st.appendAudit(opRotate, 0, ""); err != nil {
		util.WipeBytes(newKey)
		return err
	}

	s.mu.Lock()
	s.key = memguard.NewEnclave(newKey)
	s.mu.Unlock()
	return nil
}

// Audit returns up to limit audit events, newest first. limit <= 0 means
// no limit.
func (s *Session) Audit(ctx context.Context, limit int) ([]*storage.AuditEvent, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.ensureUnlocked(); err != nil {
		return nil, err
	}

	st := s.store
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.repo.ListAudit(limit)
}
