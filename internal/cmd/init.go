package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/config"
	"github.com/covgap/covgap/internal/store"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize .covgap directory, config, and baseline store",
	Long: `Create the .covgap directory in the current directory, write a
commented starter config.yaml, and initialize the baseline database.

covgap works without initialization: analysis falls back to built-in
defaults. Initialize when you want a committed config or baseline
history for the minimum-increase gate.

Examples:
  covgap init          # Initialize in current directory
  covgap init --force  # Rewrite config.yaml with defaults`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

var initForce bool

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initForce, "force", false, "Rewrite an existing config.yaml with defaults")
}

func runInit(cmd *cobra.Command, args []string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}

	configDir := filepath.Join(cwd, config.ConfigDirName)
	configFile := filepath.Join(configDir, config.ConfigFileName)

	_, err = os.Stat(configFile)
	if err == nil {
		if !initForce {
			relPath, _ := filepath.Rel(cwd, configDir)
			fmt.Fprintf(cmd.OutOrStdout(), "Already initialized at %s\n", relPath)
			return nil
		}
		// --force rewrites the config but never touches baseline history
		if err := os.Remove(configFile); err != nil {
			return fmt.Errorf("removing existing config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("checking config path: %w", err)
	}

	configPath, err := config.SaveDefault(cwd)
	if err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Open the store to create the database and schema
	db, err := store.Open(configDir)
	if err != nil {
		return fmt.Errorf("initializing baseline store: %w", err)
	}
	defer db.Close()

	relPath, _ := filepath.Rel(cwd, configPath)
	fmt.Fprintf(cmd.OutOrStdout(), "Initialized covgap at %s\n", relPath)
	return nil
}
