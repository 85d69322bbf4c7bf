package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sql-miner/sqlminer/internal/storage"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print corpus statistics and the last extraction run",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := storage.NewDatabase(storePath(cmd))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.Initialize(); err != nil {
			return err
		}

		insights, err := db.GetInsights()
		if err != nil {
			return err
		}

		fmt.Printf("Scripts: %d across %d pages in %d spaces\n",
			insights.TotalScripts, insights.TotalPages, insights.TotalSpaces)
		fmt.Printf("Lines:   %d total, %.1f average\n", insights.TotalLines, insights.AvgLines)

		printFacets("By type", insights.ByType)
		printFacets("By source", insights.BySource)
		printFacets("By size (lines)", insights.BySize)
		printFacets("By nesting depth", insights.ByNesting)
		printFacets("Top tables", insights.TopTables)
		printFacets("Top schemas", insights.TopSchemas)
		printFacets("Top pages", insights.TopPages)
		printFacets("Most complex (keywords)", insights.MostComplex)

		run, err := db.GetLastRun()
		if err != nil {
			return err
		}
		if run != nil {
			fmt.Printf("\nLast run (%s):\n", run.StartedAt.Format("2006-01-02 15:04:05"))
			fmt.Printf("  Input:      %s\n", run.InputSource)
			fmt.Printf("  Pages:      %d scanned, %d with SQL, %d errors\n",
				run.PagesScanned, run.PagesWithSQL, run.PageErrors)
			fmt.Printf("  Fragments:  %d found, %d inserted, %d duplicates\n",
				run.FragmentsFound, run.FragmentsInserted, run.DuplicatesSkipped)
		}
		return nil
	},
}

func printFacets(title string, facets []storage.Facet) {
	if len(facets) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, f := range facets {
		fmt.Printf("  %-24s %d\n", f.Value, f.Count)
	}
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
