package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var passwdCmd = &cobra.Command{
	Use:   "passwd",
	Short: "Change the master passphrase",
	Long: `Changes the master passphrase. Every credential is re-encrypted
under the new key in one atomic step; an interrupted change leaves the
vault on the old passphrase.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		passphrase, err := promptNewPassphrase("New master passphrase")
		if err != nil {
			return err
		}
		if err := session.ChangePassphrase(cmd.Context(), passphrase); err != nil {
			return mapAuthError(err)
		}
		fmt.Println("Master passphrase changed.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passwdCmd)
}
