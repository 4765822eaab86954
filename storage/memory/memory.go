// Package memory provides a thread-safe in-memory implementation of
// storage.Repository. Suitable for testing, demos, and single-process use.
package memory

import (
	"fmt"
	"sync"
	"time"

	"github.com/jmcleod/silentlock/storage"
)

// Repository is a thread-safe in-memory implementation of storage.Repository.
type Repository struct {
	mu     sync.RWMutex
	master *storage.MasterKey
	creds  map[uint64]*storage.Credential
	nextID uint64
	audit  []*storage.AuditEvent
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository creates a new empty in-memory Repository.
func NewRepository() *Repository {
	return &Repository{creds: make(map[uint64]*storage.Credential)}
}

func cloneMasterKey(mk *storage.MasterKey) *storage.MasterKey {
	if mk == nil {
		return nil
	}
	cp := *mk
	cp.Salt = append([]byte(nil), mk.Salt...)
	cp.Fingerprint = append([]byte(nil), mk.Fingerprint...)
	return &cp
}

func cloneCredential(c *storage.Credential) *storage.Credential {
	if c == nil {
		return nil
	}
	cp := *c
	cp.Nonce = append([]byte(nil), c.Nonce...)
	cp.Ciphertext = append([]byte(nil), c.Ciphertext...)
	cp.Tag = append([]byte(nil), c.Tag...)
	return &cp
}

func (r *Repository) LoadMasterKey() (*storage.MasterKey, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.master == nil {
		return nil, storage.ErrNotInitialized
	}
	return cloneMasterKey(r.master), nil
}

func (r *Repository) SaveMasterKey(mk *storage.MasterKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.master != nil {
		return storage.ErrAlreadyInitialized
	}
	r.master = cloneMasterKey(mk)
	return nil
}

func (r *Repository) Insert(c *storage.Credential) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	c.ID = r.nextID
	r.creds[c.ID] = cloneCredential(c)
	return c.ID, nil
}

func (r *Repository) Get(id uint64) (*storage.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.creds[id]
	if !ok {
		return nil, fmt.Errorf("credential %d: %w", id, storage.ErrNotFound)
	}
	return cloneCredential(c), nil
}

func (r *Repository) Update(c *storage.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[c.ID]; !ok {
		return fmt.Errorf("credential %d: %w", c.ID, storage.ErrNotFound)
	}
	r.creds[c.ID] = cloneCredential(c)
	return nil
}

func (r *Repository) Delete(id uint64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.creds[id]; !ok {
		return fmt.Errorf("credential %d: %w", id, storage.ErrNotFound)
	}
	delete(r.creds, id)
	return nil
}

func (r *Repository) List() ([]*storage.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	creds := make([]*storage.Credential, 0, len(r.creds))
	for _, c := range r.creds {
		creds = append(creds, cloneCredential(c))
	}
	return creds, nil
}

func (r *Repository) Touch(id uint64, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.creds[id]
	if !ok {
		return fmt.Errorf("credential %d: %w", id, storage.ErrNotFound)
	}
	c.LastUsedAt = usedAt
	return nil
}

func (r *Repository) Replace(mk *storage.MasterKey, creds []*storage.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	next := make(map[uint64]*storage.Credential, len(creds))
	for _, c := range creds {
		next[c.ID] = cloneCredential(c)
	}
	r.master = cloneMasterKey(mk)
	r.creds = next
	return nil
}

func (r *Repository) AppendAudit(e *storage.AuditEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *e
	r.audit = append(r.audit, &cp)
	return nil
}

func (r *Repository) ListAudit(limit int) ([]*storage.AuditEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var events []*storage.AuditEvent
	for i := len(r.audit) - 1; i >= 0; i-- {
		if limit > 0 && len(events) >= limit {
			break
		}
		cp := *r.audit[i]
		events = append(events, &cp)
	}
	return events, nil
}
