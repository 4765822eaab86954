package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/vault"
)

var (
	updName     string
	updURL      string
	updUsername string
	updNotes    string
	updPassword bool
)

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Edit a stored credential",
	Long: `Edits a credential. Only the fields given as flags change; with
--password a new password is prompted for.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record ID %q", args[0])
		}

		var upd vault.RecordUpdate
		if cmd.Flags().Changed("name") {
			upd.SiteName = &updName
		}
		if cmd.Flags().Changed("url") {
			upd.SiteURL = &updURL
		}
		if cmd.Flags().Changed("username") {
			upd.Username = &updUsername
		}
		if cmd.Flags().Changed("notes") {
			upd.Notes = &updNotes
		}
		if upd == (vault.RecordUpdate{}) && !updPassword {
			return fmt.Errorf("nothing to update; pass at least one field flag")
		}

		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		if updPassword {
			password, err := promptNewPassphrase("New password")
			if err != nil {
				return err
			}
			upd.Password = &password
		}

		if err := session.Update(cmd.Context(), id, upd); err != nil {
			return mapAuthError(err)
		}
		fmt.Printf("Updated credential %d\n", id)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updName, "name", "", "new display name")
	updateCmd.Flags().StringVar(&updURL, "url", "", "new site URL")
	updateCmd.Flags().StringVarP(&updUsername, "username", "u", "", "new username")
	updateCmd.Flags().StringVar(&updNotes, "notes", "", "new notes")
	updateCmd.Flags().BoolVarP(&updPassword, "password", "p", false, "prompt for a new password")
	rootCmd.AddCommand(updateCmd)
}
