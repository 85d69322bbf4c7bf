// Package storage provides data persistence for extracted SQL scripts.
package storage

import "time"

// Script represents one extracted SQL fragment in the database.
type Script struct {
	ID        int64  `json:"id"`
	PageID    string `json:"page_id"`
	PageTitle string `json:"page_title"`
	SpaceKey  string `json:"space_key"`
	SpaceName string `json:"space_name"`
	PageURL   string `json:"page_url"`

	SQLHash     string `json:"sql_hash"`
	SQLCode     string `json:"sql_code"`
	Language    string `json:"sql_language"`
	Title       string `json:"sql_title"`
	Description string `json:"sql_description"`
	Source      string `json:"sql_source"` // provenance label

	LineCount int `json:"line_count"`
	CharCount int `json:"char_count"`

	// Derived analytics, computed once at insert time
	NestingDepth      int    `json:"nesting_depth"`
	KeywordCount      int    `json:"keyword_count"`
	SQLType           string `json:"sql_type"`
	TablesReferenced  string `json:"tables_referenced"`  // comma-separated, sorted
	SchemasReferenced string `json:"schemas_referenced"` // comma-separated, sorted

	PageVersion  int       `json:"page_version"`
	CreatedDate  string    `json:"created_date"` // page creation date as reported by the wiki
	LastModified string    `json:"last_modified"`
	LastEditor   string    `json:"last_editor"`
	CreatedAt    time.Time `json:"created_at"` // row insertion time
}

// Run records one extraction run's counters.
type Run struct {
	ID                int64      `json:"id"`
	StartedAt         time.Time  `json:"started_at"`
	CompletedAt       *time.Time `json:"completed_at,omitempty"`
	InputSource       string     `json:"input_source"` // snapshot dir or REST base URL
	PagesScanned      int        `json:"pages_scanned"`
	PagesWithSQL      int        `json:"pages_with_sql"`
	FragmentsFound    int        `json:"fragments_found"`
	FragmentsInserted int        `json:"fragments_inserted"`
	DuplicatesSkipped int        `json:"duplicates_skipped"`
	PageErrors        int        `json:"page_errors"`
}

// SpaceSummary is one row of the sql_summary view.
type SpaceSummary struct {
	SpaceKey     string  `json:"space_key"`
	SpaceName    string  `json:"space_name"`
	ScriptCount  int     `json:"script_count"`
	PagesWithSQL int     `json:"pages_with_sql"`
	TotalLines   int     `json:"total_lines"`
	AvgLines     float64 `json:"avg_lines"`
	MaxLines     int     `json:"max_lines"`
	TypeCount    int     `json:"type_count"`
}

// PageGroup is one page node in the space/page/script tree.
type PageGroup struct {
	PageID      string `json:"page_id"`
	PageTitle   string `json:"page_title"`
	ScriptCount int    `json:"script_count"`
}

// SpaceGroup is one space node in the space/page/script tree.
type SpaceGroup struct {
	SpaceKey    string      `json:"space_key"`
	ScriptCount int         `json:"script_count"`
	Pages       []PageGroup `json:"pages"`
}

// Facet is one value/count pair of an aggregate distribution.
type Facet struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Insights bundles the corpus-level aggregates for the analytics view.
type Insights struct {
	TotalScripts   int            `json:"total_scripts"`
	TotalPages     int            `json:"total_pages"`
	TotalSpaces    int            `json:"total_spaces"`
	TotalLines     int            `json:"total_lines"`
	AvgLines       float64        `json:"avg_lines"`
	ByType         []Facet        `json:"by_type"`
	BySource       []Facet        `json:"by_source"`
	BySize         []Facet        `json:"by_size"`
	ByNesting      []Facet        `json:"by_nesting"`
	TopTables      []Facet        `json:"top_tables"`
	TopSchemas     []Facet        `json:"top_schemas"`
	TopPages       []Facet        `json:"top_pages"`
	MostComplex    []Facet        `json:"most_complex"`
	SpaceSummaries []SpaceSummary `json:"space_summaries"`
}
