// Package vault implements the encrypted credential store: key management,
// the unlocked-session lifecycle, duplicate detection, and per-record
// authenticated encryption.
package vault

import (
	"time"

	"github.com/jmcleod/silentlock/crypto"
	"github.com/jmcleod/silentlock/storage"
)

// Source records how a credential entered the vault. Provenance is display
// and audit information only; it never affects access control.
type Source string

const (
	SourceManual   Source = "manual"
	SourceDetected Source = "detected"
	SourceImported Source = "imported"
)

// Record is one stored login. The secret stays sealed; use Session.Reveal
// to decrypt it on demand.
type Record struct {
	ID         uint64
	SiteName   string
	SiteURL    string
	Username   string
	Secret     crypto.SecretBox
	Notes      string
	Source     Source
	CreatedAt  time.Time
	LastUsedAt time.Time
}

// Candidate is a credential proposed for storage: a manual entry, a save
// proposed by the out-of-process form watcher, or an imported row.
type Candidate struct {
	SiteName   string
	SiteURL    string
	Username   string
	Password   string
	Notes      string
	Source     Source
	DetectedAt time.Time
}

// RecordUpdate describes a partial edit. Nil fields keep their stored
// value. Any update re-seals the secret with a fresh nonce, whether or not
// the password itself changed.
type RecordUpdate struct {
	SiteName *string
	SiteURL  *string
	Username *string
	Password *string
	Notes    *string
}

// MatchKind classifies a duplicate-detection hit.
type MatchKind string

const (
	// MatchExact means the normalized URL and username both match an
	// existing record. Blocks an Add.
	MatchExact MatchKind = "exact"
	// MatchSimilarDomain means the hosts are subdomain variants of each
	// other with the same username. Advisory only.
	MatchSimilarDomain MatchKind = "similar-domain"
	// MatchUsernameReuse means the same username exists on an unrelated
	// domain. Informational only.
	MatchUsernameReuse MatchKind = "username-reuse"
)

// Match reports one duplicate-detection hit against an existing record.
type Match struct {
	Kind   MatchKind
	Record Record
}

// Validation limits.
const (
	MaxSiteNameLength = 256
	MaxSiteURLLength  = 2048
	MaxUsernameLength = 256
	MaxSecretSize     = 4096
	MaxNotesLength    = 4096
)

// Audit operation names.
const (
	opInit   = "init"
	opUnlock = "unlock"
	opAdd    = "add"
	opUpdate = "update"
	opDelete = "delete"
	opReveal = "reveal"
	opRotate = "rotate-master-key"
)

func recordFromStorage(c *storage.Credential) Record {
	return Record{
		ID:       c.ID,
		SiteName: c.SiteName,
		SiteURL:  c.SiteURL,
		Username: c.Username,
		Secret: crypto.SecretBox{
			Nonce:      c.Nonce,
			Ciphertext: c.Ciphertext,
			Tag:        c.Tag,
		},
		Notes:      c.Notes,
		Source:     Source(c.Source),
		CreatedAt:  c.CreatedAt,
		LastUsedAt: c.LastUsedAt,
	}
}
