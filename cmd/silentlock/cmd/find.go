package cmd

import (
	"github.com/spf13/cobra"
)

var findCmd = &cobra.Command{
	Use:   "find <url-or-domain>",
	Short: "Find credentials for a site",
	Long: `Finds the credentials stored for a URL or domain, most recently
used first. The match is by normalized host, so https://www.example.com/login
and example.com find the same entries.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		records, err := session.FindByURL(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		printRecords(records)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(findCmd)
}
