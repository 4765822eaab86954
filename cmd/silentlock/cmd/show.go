package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/internal/util"
)

var showReveal bool

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one credential",
	Long: `Shows a credential's metadata. With --reveal the password is
decrypted and printed to stdout, and the record's last-used time is
updated.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid record ID %q", args[0])
		}

		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		rec, err := session.Get(cmd.Context(), id)
		if err != nil {
			return err
		}

		fmt.Printf("ID:        %d\n", rec.ID)
		fmt.Printf("Site:      %s\n", rec.SiteName)
		fmt.Printf("URL:       %s\n", rec.SiteURL)
		fmt.Printf("Username:  %s\n", rec.Username)
		fmt.Printf("Source:    %s\n", rec.Source)
		fmt.Printf("Created:   %s\n", rec.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Last used: %s\n", rec.LastUsedAt.Format("2006-01-02 15:04"))
		if rec.Notes != "" {
			fmt.Printf("Notes:     %s\n", rec.Notes)
		}

		if showReveal {
			plaintext, err := session.Reveal(cmd.Context(), id)
			if err != nil {
				return mapAuthError(err)
			}
			fmt.Printf("Password:  %s\n", plaintext)
			util.WipeBytes(plaintext)
		}
		return nil
	},
}

func init() {
	showCmd.Flags().BoolVar(&showReveal, "reveal", false, "decrypt and print the password")
	rootCmd.AddCommand(showCmd)
}
