package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sql-miner/sqlminer/internal/config"
)

var (
	cfgFile string
	verbose bool
	cfg     *config.Config
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sqlminer",
	Short: "Extract, deduplicate and browse SQL scripts buried in wiki pages",
	Long: `sqlminer scans Confluence wiki pages for SQL: code macros, noformat
blocks, pre tags, table cells, and SQL pasted as plain paragraphs. Every
fragment is deduplicated by content digest, analyzed (statement type, table
references, nesting depth), and stored in SQLite for browsing and export.

Pages come from exported JSON snapshots or live over the Confluence REST API.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		return nil
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./sqlminer.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().String("db", "", "path to the SQLite store (overrides config)")
}

// storePath resolves the database path: --db flag beats config.
func storePath(cmd *cobra.Command) string {
	if path, _ := cmd.Flags().GetString("db"); path != "" {
		return path
	}
	return cfg.Store.Path
}
