package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmcleod/silentlock/internal/util"
	"github.com/jmcleod/silentlock/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show vault status",
	Long:  `Shows the vault file's key parameters without unlocking it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, _, err := openStore()
		if err != nil {
			return err
		}
		defer repo.Close()

		mk, err := repo.LoadMasterKey()
		if errors.Is(err, storage.ErrNotInitialized) {
			fmt.Printf("Vault:       %s\n", vaultPath)
			fmt.Println("Initialized: no")
			return nil
		}
		if err != nil {
			return err
		}

		fmt.Printf("Vault:           %s\n", vaultPath)
		fmt.Println("Initialized:     yes")
		fmt.Printf("KDF iterations:  %d\n", mk.Iterations)
		fmt.Printf("Key created:     %s\n", mk.CreatedAt.Format("2006-01-02 15:04"))
		fmt.Printf("Key fingerprint: %s\n", util.HexEncode(mk.Fingerprint[:8]))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
