package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/vault"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored credentials",
	Long:  `Lists every credential's metadata. Passwords stay encrypted; use 'silentlock show --reveal' to decrypt one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		records, err := session.List(cmd.Context())
		if err != nil {
			return err
		}
		printRecords(records)
		return nil
	},
}

func printRecords(records []vault.Record) {
	if len(records) == 0 {
		fmt.Println("No credentials stored.")
		return
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSITE\tURL\tUSERNAME\tSOURCE\tLAST USED")
	for _, r := range records {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.ID, r.SiteName, r.SiteURL, r.Username, r.Source,
			r.LastUsedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()
}

func init() {
	rootCmd.AddCommand(listCmd)
}
