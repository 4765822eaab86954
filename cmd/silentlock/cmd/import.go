package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import credentials from a browser CSV export",
	Long: `Imports a password CSV exported by Chrome, Edge, Brave or Firefox.
Exact duplicates of entries already in the vault are skipped; the rest of
the batch is imported even when individual rows fail.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening import file: %w", err)
		}
		defer f.Close()

		batch, err := importer.ParseCSV(f)
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			fmt.Println("Nothing to import.")
			return nil
		}

		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		report, err := importer.Reconcile(cmd.Context(), session, batch)
		if report != nil {
			fmt.Println(report)
			for _, failure := range report.Failures {
				fmt.Printf("  row %d (%s): %v\n", failure.Index+1, failure.Site, failure.Err)
			}
			if report.Similar > 0 {
				fmt.Printf("  %d imported entries look similar to existing ones; review with 'silentlock list'\n", report.Similar)
			}
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
