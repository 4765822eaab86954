package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	bboltstorage "github.com/jmcleod/silentlock/storage/bbolt"
	"github.com/jmcleod/silentlock/vault"
)

// readPassword is swappable in tests.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

// promptPassphrase reads a hidden passphrase from the terminal.
func promptPassphrase(label string) (string, error) {
	fmt.Fprintf(os.Stderr, "%s: ", label)
	b, err := readPassword()
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading passphrase: %w", err)
	}
	return string(b), nil
}

// promptNewPassphrase reads a passphrase twice and requires both entries to
// match.
func promptNewPassphrase(label string) (string, error) {
	first, err := promptPassphrase(label)
	if err != nil {
		return "", err
	}
	second, err := promptPassphrase("Confirm " + label)
	if err != nil {
		return "", err
	}
	if first != second {
		return "", errors.New("passphrases do not match")
	}
	return first, nil
}

// unlockSession opens the vault file and unlocks it with a prompted
// passphrase. The caller must Close both the repository and the session.
func unlockSession(cmd *cobra.Command) (*bboltstorage.Store, *vault.Session, error) {
	repo, store, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	ok, err := store.Initialized()
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	if !ok {
		repo.Close()
		return nil, nil, fmt.Errorf("vault %s is not initialized; run 'silentlock init' first", vaultPath)
	}

	passphrase, err := promptPassphrase("Master passphrase")
	if err != nil {
		repo.Close()
		return nil, nil, err
	}
	session, err := store.Unlock(cmd.Context(), passphrase)
	if err != nil {
		repo.Close()
		return nil, nil, mapAuthError(err)
	}
	return repo, session, nil
}

// mapAuthError collapses every authentication failure into one message. A
// wrong passphrase and a tampered record must be indistinguishable to the
// user.
func mapAuthError(err error) error {
	if errors.Is(err, vault.ErrAuthenticationFailed) {
		return errors.New("incorrect password")
	}
	return err
}
