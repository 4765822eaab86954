package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	bboltstorage "github.com/jmcleod/silentlock/storage/bbolt"
	"github.com/jmcleod/silentlock/vault"
)

// Version is the CLI version string, overridable at build time.
var Version = "dev"

var (
	vaultPath string
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "silentlock",
	Short: "SilentLock is a local encrypted credential vault",
	Long: `A local credential vault: usernames and passwords encrypted per record
under a key derived from your master passphrase. The vault is a single
local file; nothing ever leaves your machine.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&vaultPath, "vault", defaultVaultPath(), "path to the vault file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func defaultVaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "credentials.db"
	}
	return filepath.Join(dir, "silentlock", "credentials.db")
}

// openStore opens the vault file and wraps it in a credential store. The
// caller must Close the returned repository.
func openStore() (*bboltstorage.Store, *vault.Store, error) {
	if err := os.MkdirAll(filepath.Dir(vaultPath), 0o700); err != nil {
		return nil, nil, fmt.Errorf("creating vault directory: %w", err)
	}
	repo, err := bboltstorage.NewRepositoryFromFile(vaultPath, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("opening vault file: %w", err)
	}
	return repo, vault.New(repo), nil
}
