package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/sql-miner/sqlminer/internal/collector"
	"github.com/sql-miner/sqlminer/internal/pipeline"
	"github.com/sql-miner/sqlminer/internal/storage"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Scan wiki pages and extract SQL scripts into the store",
	Long: `Scan pages for SQL fragments and persist them to SQLite.

By default pages are read from exported JSON snapshot files (one per space).
With --live the pages are pulled from the Confluence REST API instead, using
the confluence.* settings from the config file.

Re-running extract over the same pages is idempotent: fragments whose
(page, digest) pair is already on record are skipped.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		live, _ := cmd.Flags().GetBool("live")
		snapshotsDir, _ := cmd.Flags().GetString("snapshots")
		if snapshotsDir == "" {
			snapshotsDir = cfg.Snapshots.Dir
		}
		minLines, _ := cmd.Flags().GetInt("min-lines")
		if !cmd.Flags().Changed("min-lines") {
			minLines = cfg.Extract.MinLines
		}
		globalDedup, _ := cmd.Flags().GetBool("global-dedup")
		if !cmd.Flags().Changed("global-dedup") {
			globalDedup = cfg.Extract.GlobalDedup
		}
		summaryOnly, _ := cmd.Flags().GetBool("summary-only")
		if !cmd.Flags().Changed("summary-only") {
			summaryOnly = cfg.Extract.SummaryOnly
		}

		db, err := storage.NewDatabase(storePath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			return err
		}
		if rebuild, _ := cmd.Flags().GetBool("rebuild"); rebuild {
			logger.Info("clearing store before extraction")
			if err := db.Reset(); err != nil {
				return err
			}
		}
		db.SetGlobalDedup(globalDedup)

		p := pipeline.New(db, logger, pipeline.Options{
			MinLines:    minLines,
			SummaryOnly: summaryOnly,
		})

		var snapshots []collector.SpaceSnapshot
		badPages := 0
		inputSource := snapshotsDir

		if live {
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.Confluence.BaseURL == "" {
				return fmt.Errorf("--live requires confluence.base_url in the config")
			}
			spaces, _ := cmd.Flags().GetStringSlice("space")
			if len(spaces) == 0 {
				spaces = cfg.Confluence.Spaces
			}
			if len(spaces) == 0 {
				return fmt.Errorf("--live requires at least one space (--space or confluence.spaces)")
			}

			client := collector.NewClient(cfg.Confluence.BaseURL, cfg.Confluence.Username,
				cfg.Confluence.Token, cfg.Confluence.PageLimit, cfg.Confluence.RateLimit)
			inputSource = cfg.Confluence.BaseURL

			for _, space := range spaces {
				logger.Info("fetching space", "space", space)
				pages, bad, err := client.FetchSpacePages(cmd.Context(), space)
				if err != nil {
					return fmt.Errorf("failed to fetch space %s: %w", space, err)
				}
				badPages += bad
				snapshots = append(snapshots, collector.SpaceSnapshot{SpaceKey: space, Pages: pages})
			}
		} else {
			snapshots, badPages, err = collector.LoadSnapshots(snapshotsDir, logger)
			if err != nil {
				return err
			}
		}

		if badPages > 0 {
			logger.Warn("some pages could not be decoded", "count", badPages)
		}

		summary, err := p.RunSnapshots(snapshots, inputSource)
		if err != nil {
			return err
		}

		fmt.Println()
		fmt.Printf("Extraction complete!\n")
		fmt.Printf("  Pages scanned:   %d\n", summary.PagesScanned)
		fmt.Printf("  Pages with SQL:  %d\n", summary.PagesWithSQL)
		fmt.Printf("  Fragments found: %d\n", summary.FragmentsFound)
		if !summaryOnly {
			fmt.Printf("  Inserted:        %d\n", summary.FragmentsInserted)
			fmt.Printf("  Duplicates:      %d\n", summary.DuplicatesSkipped)
		}
		fmt.Printf("  Page errors:     %d\n", summary.PageErrors)
		fmt.Printf("  Duration:        %s\n", summary.Elapsed.Round(time.Millisecond))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().String("snapshots", "", "directory of exported JSON snapshots")
	extractCmd.Flags().Bool("live", false, "pull pages from the Confluence REST API")
	extractCmd.Flags().StringSlice("space", nil, "space keys to fetch with --live (repeatable)")
	extractCmd.Flags().Int("min-lines", 0, "drop fragments shorter than this many lines")
	extractCmd.Flags().Bool("global-dedup", false, "keep only the first occurrence of a script across all pages")
	extractCmd.Flags().Bool("summary-only", false, "scan and report without writing to the store")
	extractCmd.Flags().Bool("rebuild", false, "clear the store (scripts, hash index, runs) before extracting")
}
