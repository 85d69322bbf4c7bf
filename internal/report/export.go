// Package report exports the extracted SQL corpus to files analysts can
// work with outside the browse API.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sql-miner/sqlminer/internal/storage"
)

// ExportFormat defines the export file format.
type ExportFormat string

const (
	FormatCSV  ExportFormat = "csv"
	FormatXLSX ExportFormat = "xlsx"
	FormatSQL  ExportFormat = "sql"
)

// columns is the flat tabular projection of a script row.
var columns = []string{
	"ID", "Space", "Page Title", "Page URL", "Title", "Language", "Source",
	"SQL Type", "Lines", "Chars", "Nesting", "Keywords", "Tables", "Schemas",
	"Description", "SQL",
}

// Exporter writes script listings to a file.
type Exporter struct {
	db *storage.Database
}

// NewExporter creates an exporter over the given store.
func NewExporter(db *storage.Database) *Exporter {
	return &Exporter{db: db}
}

// Export writes all scripts matching the filter to path in the given format.
func (e *Exporter) Export(filter storage.Filter, format ExportFormat, path string) error {
	scripts, err := e.collectAll(filter)
	if err != nil {
		return err
	}

	switch format {
	case FormatCSV:
		return exportCSV(scripts, path)
	case FormatXLSX:
		return e.exportXLSX(scripts, path)
	case FormatSQL:
		return exportSQL(scripts, path)
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// collectAll pages through the store until the filter is exhausted.
func (e *Exporter) collectAll(filter storage.Filter) ([]*storage.Script, error) {
	var all []*storage.Script
	for page := 1; ; page++ {
		filter.Page = page
		scripts, err := e.db.ListScripts(filter)
		if err != nil {
			return nil, err
		}
		if len(scripts) == 0 {
			break
		}
		all = append(all, scripts...)
		if len(scripts) < storage.PageSize {
			break
		}
	}
	return all, nil
}

func scriptRow(s *storage.Script) []string {
	return []string{
		fmt.Sprintf("%d", s.ID), s.SpaceKey, s.PageTitle, s.PageURL,
		s.Title, s.Language, s.Source, s.SQLType,
		fmt.Sprintf("%d", s.LineCount), fmt.Sprintf("%d", s.CharCount),
		fmt.Sprintf("%d", s.NestingDepth), fmt.Sprintf("%d", s.KeywordCount),
		s.TablesReferenced, s.SchemasReferenced, s.Description, s.SQLCode,
	}
}

// exportCSV writes scripts as CSV with a UTF-8 BOM for Excel compatibility.
func exportCSV(scripts []*storage.Script, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	file.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, s := range scripts {
		if err := writer.Write(scriptRow(s)); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}

// exportXLSX writes scripts as a styled workbook: the script listing, a
// per-space summary sheet, and a metadata sheet.
func (e *Exporter) exportXLSX(scripts []*storage.Script, path string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "SQL Scripts"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"1565C0"}},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		width := float64(len(col) + 5)
		if width < 12 {
			width = 12
		}
		if col == "SQL" || col == "Description" {
			width = 60
		}
		f.SetColWidth(sheetName, colName, colName, width)
	}

	for rowIdx, s := range scripts {
		for i, value := range scriptRow(s) {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(columns))
	filterRange := fmt.Sprintf("A1:%s%d", lastCol, len(scripts)+1)
	f.AutoFilter(sheetName, filterRange, nil)

	f.SetPanes(sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})

	if err := e.addSummarySheet(f); err != nil {
		return err
	}
	addMetadataSheet(f, len(scripts))

	return f.SaveAs(path)
}

// addSummarySheet writes the per-space rollup.
func (e *Exporter) addSummarySheet(f *excelize.File) error {
	summaries, err := e.db.GetSpaceSummaries()
	if err != nil {
		return err
	}

	sheetName := "Spaces"
	f.NewSheet(sheetName)

	headers := []string{"Space", "Space Name", "Scripts", "Pages with SQL", "Total Lines", "Avg Lines", "Max Lines", "Types"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, h)
	}

	for rowIdx, s := range summaries {
		values := []interface{}{
			s.SpaceKey, s.SpaceName, s.ScriptCount, s.PagesWithSQL, s.TotalLines,
			s.AvgLines, s.MaxLines, s.TypeCount,
		}
		for i, v := range values {
			cell, _ := excelize.CoordinatesToCellName(i+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, v)
		}
	}

	f.SetColWidth(sheetName, "A", "A", 20)
	return nil
}

func addMetadataSheet(f *excelize.File, total int) {
	sheetName := "Metadata"
	f.NewSheet(sheetName)

	metadata := [][]string{
		{"Total Scripts", fmt.Sprintf("%d", total)},
		{"Generated", time.Now().Format(time.RFC3339)},
		{"Tool", "sqlminer"},
	}
	for i, row := range metadata {
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", i+1), row[0])
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", i+1), row[1])
	}
	f.SetColWidth(sheetName, "A", "A", 20)
	f.SetColWidth(sheetName, "B", "B", 50)
}

// exportSQL writes scripts as one runnable-looking .sql file, each script
// under a banner comment naming where it came from.
func exportSQL(scripts []*storage.Script, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("-- SQL scripts extracted from wiki pages\n-- Generated: %s\n-- Scripts: %d\n\n",
		time.Now().Format(time.RFC3339), len(scripts)))

	for _, s := range scripts {
		sb.WriteString("-- " + strings.Repeat("=", 70) + "\n")
		sb.WriteString(fmt.Sprintf("-- Script %d | %s | %s\n", s.ID, s.SpaceKey, s.PageTitle))
		if s.Title != "" {
			sb.WriteString(fmt.Sprintf("-- Title: %s\n", s.Title))
		}
		sb.WriteString(fmt.Sprintf("-- Source: %s | Type: %s | Lines: %d\n", s.Source, s.SQLType, s.LineCount))
		if s.PageURL != "" {
			sb.WriteString(fmt.Sprintf("-- Page: %s\n", s.PageURL))
		}
		sb.WriteString("-- " + strings.Repeat("=", 70) + "\n\n")
		sb.WriteString(strings.TrimRight(s.SQLCode, "\n"))
		sb.WriteString("\n\n")
	}

	_, err = file.WriteString(sb.String())
	return err
}
