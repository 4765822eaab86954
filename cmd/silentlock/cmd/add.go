package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/vault"
)

var (
	addName     string
	addURL      string
	addUsername string
	addNotes    string
)

var addCmd = &cobra.Command{
	Use:   "add",
	Short: "Store a new credential",
	Long: `Stores a new credential. The password is prompted for and never
echoed. An exact duplicate (same site and username) is rejected; similar
entries are reported but do not block the save.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		password, err := promptPassphrase("Password for " + addUsername)
		if err != nil {
			return err
		}

		if addName == "" {
			addName = vault.NormalizeSiteURL(addURL)
		}

		strength := vault.EvaluateStrength(password, addName, addURL, addUsername)
		if strength.Score < 3 {
			fmt.Printf("Warning: weak password (crack time %s)\n", strength.CrackTimeDisplay)
		}

		id, advisories, err := session.Add(cmd.Context(), vault.Candidate{
			SiteName: addName,
			SiteURL:  addURL,
			Username: addUsername,
			Password: password,
			Notes:    addNotes,
			Source:   vault.SourceManual,
		})
		if err != nil {
			var dup *vault.DuplicateError
			if errors.As(err, &dup) {
				return fmt.Errorf("a credential for this site and username already exists (record %d); use 'silentlock update %d' to change it", dup.ExistingID, dup.ExistingID)
			}
			return err
		}

		for _, m := range advisories {
			switch m.Kind {
			case vault.MatchSimilarDomain:
				fmt.Printf("Note: similar entry exists for %s (%s), record %d\n",
					m.Record.SiteURL, m.Record.Username, m.Record.ID)
			case vault.MatchUsernameReuse:
				fmt.Printf("Note: username %q is also used on %s, record %d\n",
					m.Record.Username, m.Record.SiteURL, m.Record.ID)
			}
		}
		fmt.Printf("Stored credential %d\n", id)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "display name for the site")
	addCmd.Flags().StringVar(&addURL, "url", "", "site URL or domain")
	addCmd.Flags().StringVarP(&addUsername, "username", "u", "", "login username")
	addCmd.Flags().StringVar(&addNotes, "notes", "", "free-form notes")
	addCmd.MarkFlagRequired("url")
	addCmd.MarkFlagRequired("username")
	rootCmd.AddCommand(addCmd)
}
