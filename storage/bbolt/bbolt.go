// Package bbolt provides a BBolt-backed storage repository. This is the
// single local vault file: one bucket for master key material, one for
// credential rows, one for the audit trail.
package bbolt

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"github.com/jmcleod/silentlock/storage"
)

var (
	bucketMaster      = []byte("master")
	bucketCredentials = []byte("credentials")
	bucketAudit       = []byte("audit")

	keyMaster = []byte("current")
)

// Store implements storage.Repository backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ storage.Repository = (*Store)(nil)

// NewRepository returns a Repository backed by the given BBolt database.
func NewRepository(db *bbolt.DB) (*Store, error) {
	err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketMaster, bucketCredentials, bucketAudit} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("creating buckets: %w", err)
	}
	return &Store{db: db}, nil
}

// NewRepositoryFromFile opens a BBolt database at the given path and returns
// a new Repository. The file is created with owner-only permissions.
func NewRepositoryFromFile(path string, options *bbolt.Options) (*Store, error) {
	db, err := bbolt.Open(path, 0600, options)
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}
	return NewRepository(db)
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func idKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}

func (s *Store) LoadMasterKey() (*storage.MasterKey, error) {
	var mk storage.MasterKey
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketMaster).Get(keyMaster)
		if data == nil {
			return storage.ErrNotInitialized
		}
		return json.Unmarshal(data, &mk)
	})
	if err != nil {
		return nil, err
	}
	return &mk, nil
}

func (s *Store) SaveMasterKey(mk *storage.MasterKey) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMaster)
		if b.Get(keyMaster) != nil {
			return storage.ErrAlreadyInitialized
		}
		data, err := json.Marshal(mk)
		if err != nil {
			return err
		}
		return b.Put(keyMaster, data)
	})
}

func (s *Store) Insert(c *storage.Credential) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		c.ID = seq
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		if err := b.Put(idKey(seq), data); err != nil {
			return err
		}
		id = seq
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *Store) Get(id uint64) (*storage.Credential, error) {
	var c storage.Credential
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketCredentials).Get(idKey(id))
		if data == nil {
			return fmt.Errorf("credential %d: %w", id, storage.ErrNotFound)
		}
		return json.Unmarshal(data, &c)
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *Store) Update(c *storage.Credential) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		key := idKey(c.ID)
		if b.Get(key) == nil {
			return fmt.Errorf("credential %d: %w", c.ID, storage.ErrNotFound)
		}
		data, err := json.Marshal(c)
		if err != nil {
			return err
		}
		return b.Put(key, data)
	})
}

func (s *Store) Delete(id uint64) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		key := idKey(id)
		if b.Get(key) == nil {
			return fmt.Errorf("credential %d: %w", id, storage.ErrNotFound)
		}
		return b.Delete(key)
	})
}

func (s *Store) List() ([]*storage.Credential, error) {
	var creds []*storage.Credential
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketCredentials).ForEach(func(_, v []byte) error {
			var c storage.Credential
			if err := json.Unmarshal(v, &c); err != nil {
				return err
			}
			creds = append(creds, &c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return creds, nil
}

func (s *Store) Touch(id uint64, usedAt time.Time) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketCredentials)
		key := idKey(id)
		data := b.Get(key)
		if data == nil {
			return fmt.Errorf("credential %d: %w", id, storage.ErrNotFound)
		}
		var c storage.Credential
		if err := json.Unmarshal(data, &c); err != nil {
			return err
		}
		c.LastUsedAt = usedAt
		updated, err := json.Marshal(&c)
		if err != nil {
			return err
		}
		return b.Put(key, updated)
	})
}

// Replace swaps master key material and all credential rows in a single
// write transaction. The credential sequence counter is preserved so IDs
// are never reused.
func (s *Store) Replace(mk *storage.MasterKey, creds []*storage.Credential) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		mkData, err := json.Marshal(mk)
		if err != nil {
			return err
		}
		if err := tx.Bucket(bucketMaster).Put(keyMaster, mkData); err != nil {
			return err
		}

		b := tx.Bucket(bucketCredentials)
		seq := b.Sequence()
		if err := tx.DeleteBucket(bucketCredentials); err != nil {
			return err
		}
		b, err = tx.CreateBucket(bucketCredentials)
		if err != nil {
			return err
		}
		if err := b.SetSequence(seq); err != nil {
			return err
		}
		for _, c := range creds {
			data, err := json.Marshal(c)
			if err != nil {
				return err
			}
			if err := b.Put(idKey(c.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *Store) AppendAudit(e *storage.AuditEvent) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketAudit)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		data, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(idKey(seq), data)
	})
}

func (s *Store) ListAudit(limit int) ([]*storage.AuditEvent, error) {
	var events []*storage.AuditEvent
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketAudit).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(events) >= limit {
				break
			}
			var e storage.AuditEvent
			if err := json.Unmarshal(v, &e); err != nil {
				return err
			}
			events = append(events, &e)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}
