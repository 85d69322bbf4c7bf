package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sql-miner/sqlminer/internal/server"
	"github.com/sql-miner/sqlminer/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the browse API over the extracted corpus",
	Long: `Start the read-only HTTP API for browsing extracted scripts:
filtered and paginated listings, the space/page navigation tree, and
corpus-level analytics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = cfg.Server.Addr
		}

		db, err := storage.NewDatabase(storePath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			return err
		}

		return server.New(db, logger, addr).Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
}
