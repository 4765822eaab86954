package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a credential",
	Long:  `Deletes a credential permanently. There is no undo.`,
	Args:  cobra.ExactArgs(1),
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

		if !deleteYes {
			fmt.Printf("Delete credential %d (%s, %s)? [y/N] ", rec.ID, rec.SiteName, rec.Username)
			line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
			if strings.ToLower(strings.TrimSpace(line)) != "y" {
				fmt.Println("Cancelled.")
				return nil
			}
		}

		if err := session.Delete(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Printf("Deleted credential %d\n", id)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
	rootCmd.AddCommand(deleteCmd)
}
