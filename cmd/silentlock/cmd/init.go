package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a new vault",
	Long: `Creates a new vault file protected by a master passphrase. The
passphrase is never stored; losing it means losing every credential in
the vault.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, store, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		ok, err := store.Initialized()
		if err != nil {
			return err
		}
		if ok {
			return fmt.Errorf("vault %s is already initialized", vaultPath)
		}

		passphrase, err := promptNewPassphrase("Master passphrase")
		if err != nil {
			return err
		}
		session, err := store.Initialize(cmd.Context(), passphrase)
		if err != nil {
			if errors.Is(err, vault.ErrWeakPassphrase) {
				return fmt.Errorf("passphrase too short: %w", err)
			}
			return err
		}
		defer session.Close()

		fmt.Printf("Vault created at %s\n", vaultPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
