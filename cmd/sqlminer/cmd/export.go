package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sql-miner/sqlminer/internal/report"
	"github.com/sql-miner/sqlminer/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export extracted scripts to CSV, XLSX or a SQL dump",
	Long: `Write the extracted corpus to a file. The same filters as the
browse API apply, so an export can cover the whole corpus or one slice of it.

Formats:
  csv   flat listing with a UTF-8 BOM for Excel
  xlsx  styled workbook with per-space summary and metadata sheets
  sql   one .sql file, each script under a banner comment`,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		out, _ := cmd.Flags().GetString("out")
		if out == "" {
			out = "sqlminer-export." + format
		}

		filter := storage.Filter{}
		filter.Search, _ = cmd.Flags().GetString("search")
		filter.SpaceKey, _ = cmd.Flags().GetString("space")
		filter.SQLType, _ = cmd.Flags().GetString("type")
		filter.Source, _ = cmd.Flags().GetString("source")

		db, err := storage.NewDatabase(storePath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			return err
		}

		exporter := report.NewExporter(db)
		if err := exporter.Export(filter, report.ExportFormat(format), out); err != nil {
			return err
		}

		fmt.Printf("Exported to %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().String("format", "csv", "export format: csv, xlsx or sql")
	exportCmd.Flags().String("out", "", "output file path")
	exportCmd.Flags().String("search", "", "only scripts matching this text")
	exportCmd.Flags().String("space", "", "only scripts from this space")
	exportCmd.Flags().String("type", "", "only scripts of this SQL type")
	exportCmd.Flags().String("source", "", "only scripts with this provenance")
}
