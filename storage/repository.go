// Package storage provides the persistence abstraction for the credential
// vault: one master key material row, a credentials table, and an audit
// trail. Secrets are stored as three binary blobs (nonce, ciphertext, tag);
// all other columns are plaintext because they are not considered secret.
package storage

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrNotInitialized is returned when no master key material has been
	// stored yet.
	ErrNotInitialized = errors.New("vault not initialized")
	// ErrAlreadyInitialized is returned on an attempt to store master key
	// material over an existing vault.
	ErrAlreadyInitialized = errors.New("vault already initialized")
)

// MasterKey is the persistent key derivation material for a vault. Written
// once at initialization; replaced only on master passphrase change.
type MasterKey struct {
	Salt        []byte    `json:"salt"`
	Iterations  uint32    `json:"iterations"`
	Fingerprint []byte    `json:"fingerprint"`
	CreatedAt   time.Time `json:"created_at"`
	Ver         int       `json:"ver"`
}

// Credential is one stored login row. The secret is the nonce/ciphertext/tag
// triple; everything else is searchable metadata.
type Credential struct {
	ID         uint64    `json:"id"`
	SiteName   string    `json:"site_name"`
	SiteURL    string    `json:"site_url"`
	Username   string    `json:"username"`
	Nonce      []byte    `json:"nonce"`
	Ciphertext []byte    `json:"ciphertext"`
	Tag        []byte    `json:"tag"`
	Notes      string    `json:"notes,omitzero"`
	Source     string    `json:"source"`
	CreatedAt  time.Time `json:"created_at"`
	LastUsedAt time.Time `json:"last_used_at,omitzero"`
}

// AuditEvent records one vault operation for later inspection.
type AuditEvent struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Op       string    `json:"op"`
	RecordID uint64    `json:"record_id,omitzero"`
	Detail   string    `json:"detail,omitzero"`
}

// Repository defines credential vault persistence. Implementations must be
// safe for concurrent use; higher-level read/write exclusion lives in the
// vault package.
type Repository interface {
	// LoadMasterKey returns the stored key material, or ErrNotInitialized.
	LoadMasterKey() (*MasterKey, error)
	// SaveMasterKey stores key material for a new vault. Fails with
	// ErrAlreadyInitialized if material already exists.
	SaveMasterKey(mk *MasterKey) error

	// Insert stores a new credential and assigns its ID. IDs are
	// monotonically increasing and never reused, even after deletes.
	Insert(c *Credential) (uint64, error)
	// Get returns the credential with the given ID, or ErrNotFound.
	Get(id uint64) (*Credential, error)
	// Update replaces the stored credential with the same ID, or ErrNotFound.
	Update(c *Credential) error
	// Delete removes a credential permanently, or ErrNotFound.
	Delete(id uint64) error
	// List returns all stored credentials.
	List() ([]*Credential, error)
	// Touch updates a credential's last-used timestamp, or ErrNotFound.
	Touch(id uint64, usedAt time.Time) error

	// Replace atomically swaps the master key material and the full set of
	// credentials. Used by master passphrase rotation: the re-encrypted
	// records are built fully in memory first, then committed in one step.
	Replace(mk *MasterKey, creds []*Credential) error

	// AppendAudit stores an audit event.
	AppendAudit(e *AuditEvent) error
	// ListAudit returns up to limit audit events, newest first.
	// limit <= 0 means no limit.
	ListAudit(limit int) ([]*AuditEvent, error)
}
