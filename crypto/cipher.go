package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"
	"io"

	"github.com/jmcleod/silentlock/internal/util"
)

const (
	// NonceSize is the AES-GCM nonce size in bytes.
	NonceSize = 12
	// TagSize is the AES-GCM authentication tag size in bytes.
	TagSize = 16
)

// ErrAuthentication indicates the key is wrong or the sealed data was
// corrupted or tampered with. The two causes are deliberately not
// distinguishable.
var ErrAuthentication = errors.New("authentication failed")

// SecretBox holds one authenticated-encrypted secret. Nonce, ciphertext and
// tag are kept as separate blobs so the at-rest schema can store them as
// three columns.
type SecretBox struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
	Tag        []byte `json:"tag"`
}

// Seal encrypts plaintext under key with AES-256-GCM. A fresh random nonce
// is generated on every call; there is no caller-supplied nonce path, which
// rules out nonce reuse by construction. The optional aad binds the sealed
// secret to its context and is verified on Open.
func Seal(key, plaintext, aad []byte) (*SecretBox, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, NonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("generating nonce: %w", err)
	}

	sealed := gcm.Seal(nil, nonce, plaintext, aad)

	// gcm.Seal appends the tag to the ciphertext; split them back apart.
	cut := len(sealed) - TagSize
	return &SecretBox{
		Nonce:      nonce,
		Ciphertext: util.CopyBytes(sealed[:cut]),
		Tag:        util.CopyBytes(sealed[cut:]),
	}, nil
}

// Open decrypts a SecretBox. It fails with ErrAuthentication if the tag
// does not verify; no partial plaintext is ever returned.
func Open(key []byte, box *SecretBox, aad []byte) ([]byte, error) {
	if box == nil {
		return nil, fmt.Errorf("secret box must not be nil")
	}
	if len(box.Nonce) != NonceSize {
		return nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(box.Nonce), NonceSize)
	}
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	sealed := make([]byte, 0, len(box.Ciphertext)+len(box.Tag))
	sealed = append(sealed, box.Ciphertext...)
	sealed = append(sealed, box.Tag...)

	plaintext, err := gcm.Open(nil, box.Nonce, sealed, aad)
	if err != nil {
		return nil, ErrAuthentication
	}
	return plaintext, nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
