package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var auditLimit int

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "Show the vault audit log",
	Long:  `Shows recorded vault operations, newest first. Events carry record IDs and timestamps, never secrets.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, session, err := unlockSession(cmd)
		if err != nil {
			return err
		}
		defer repo.Close()
		defer session.Close()

		events, err := session.Audit(cmd.Context(), auditLimit)
		if err != nil {
			return err
		}
		if len(events) == 0 {
			fmt.Println("No audit events.")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TIME\tOPERATION\tRECORD\tDETAIL")
		for _, ev := range events {
			record := "-"
			if ev.RecordID != 0 {
				record = fmt.Sprintf("%d", ev.RecordID)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				ev.At.Format("2006-01-02 15:04:05"), ev.Op, record, ev.Detail)
		}
		w.Flush()
		return nil
	},
}

func init() {
	auditCmd.Flags().IntVarP(&auditLimit, "limit", "n", 50, "maximum events to show (0 for all)")
	rootCmd.AddCommand(auditCmd)
}
