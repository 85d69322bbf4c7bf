package storage

import (
	"fmt"
	"sort"
	"strings"
)

// PageSize is the number of scripts per result page.
const PageSize = 50

// Filter narrows script listings. Zero values mean "no constraint"; set
// fields combine conjunctively.
type Filter struct {
	Search        string // substring match over code, page title, space key, titles and description
	SpaceKey      string
	SQLType       string
	Source        string
	SizeBucket    string // one of the sizeBucketCase labels
	NestingBucket string // one of the nestingBucketCase labels
	Page          int    // 1-based
}

// whereClause builds the WHERE fragment and its arguments for a filter.
func (f Filter) whereClause() (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Search != "" {
		like := "%" + f.Search + "%"
		conds = append(conds, `(sql_code LIKE ? OR page_title LIKE ? OR space_key LIKE ? OR sql_title LIKE ? OR sql_description LIKE ?)`)
		args = append(args, like, like, like, like, like)
	}
	if f.SpaceKey != "" {
		conds = append(conds, `space_key = ?`)
		args = append(args, f.SpaceKey)
	}
	if f.SQLType != "" {
		conds = append(conds, `sql_type = ?`)
		args = append(args, f.SQLType)
	}
	if f.Source != "" {
		conds = append(conds, `sql_source = ?`)
		args = append(args, f.Source)
	}
	if cond := sizeBucketCondition(f.SizeBucket); cond != "" {
		conds = append(conds, cond)
	}
	if cond := nestingBucketCondition(f.NestingBucket); cond != "" {
		conds = append(conds, cond)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// sizeBucketCondition translates a size bucket label to its range condition.
// The ranges must stay in lockstep with sizeBucketCase.
func sizeBucketCondition(bucket string) string {
	switch bucket {
	case "1-5":
		return "line_count <= 5"
	case "6-20":
		return "line_count BETWEEN 6 AND 20"
	case "21-50":
		return "line_count BETWEEN 21 AND 50"
	case "51-100":
		return "line_count BETWEEN 51 AND 100"
	case "101-500":
		return "line_count BETWEEN 101 AND 500"
	case "500+":
		return "line_count > 500"
	}
	return ""
}

// nestingBucketCondition translates a nesting bucket label to its condition.
func nestingBucketCondition(bucket string) string {
	switch bucket {
	case "0":
		return "nesting_depth = 0"
	case "1-2":
		return "nesting_depth BETWEEN 1 AND 2"
	case "3-5":
		return "nesting_depth BETWEEN 3 AND 5"
	case "6-10":
		return "nesting_depth BETWEEN 6 AND 10"
	case "10+":
		return "nesting_depth > 10"
	}
	return ""
}

// CountScripts returns the total number of scripts matching the filter.
func (d *Database) CountScripts(f Filter) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	where, args := f.whereClause()
	var count int
	err := d.db.QueryRow(`SELECT COUNT(*) FROM sql_scripts`+where, args...).Scan(&count)
	return count, err
}

// ListScripts returns one page of scripts matching the filter, newest first.
func (d *Database) ListScripts(f Filter) ([]*Script, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	where, args := f.whereClause()

	page := f.Page
	if page < 1 {
		page = 1
	}
	offset := (page - 1) * PageSize

	query := fmt.Sprintf(`
		SELECT id, page_id, page_title, space_key, space_name, page_url,
			sql_hash, sql_code, sql_language, sql_title, sql_description,
			sql_source, line_count, char_count, nesting_depth, keyword_count,
			sql_type, tables_referenced, schemas_referenced, page_version,
			created_date, last_modified, last_editor, created_at
		FROM sql_scripts%s
		ORDER BY created_at DESC, id DESC
		LIMIT %d OFFSET %d
	`, where, PageSize, offset)

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var scripts []*Script
	for rows.Next() {
		var s Script
		if err := rows.Scan(
			&s.ID, &s.PageID, &s.PageTitle, &s.SpaceKey, &s.SpaceName, &s.PageURL,
			&s.SQLHash, &s.SQLCode, &s.Language, &s.Title, &s.Description,
			&s.Source, &s.LineCount, &s.CharCount, &s.NestingDepth,
			&s.KeywordCount, &s.SQLType, &s.TablesReferenced, &s.SchemasReferenced,
			&s.PageVersion, &s.CreatedDate, &s.LastModified, &s.LastEditor,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		scripts = append(scripts, &s)
	}
	return scripts, rows.Err()
}

// --- Tree ---

// GetTree returns the space -> page -> script-count hierarchy for the
// navigation sidebar, narrowed to the scripts matching the filter.
func (d *Database) GetTree(f Filter) ([]SpaceGroup, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	where, args := f.whereClause()
	rows, err := d.db.Query(fmt.Sprintf(`
		SELECT space_key, page_id, page_title, COUNT(*) as script_count
		FROM sql_scripts%s
		GROUP BY space_key, page_id
		ORDER BY space_key, page_title
	`, where), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var spaces []SpaceGroup
	index := make(map[string]int)

	for rows.Next() {
		var spaceKey string
		var page PageGroup
		if err := rows.Scan(&spaceKey, &page.PageID, &page.PageTitle, &page.ScriptCount); err != nil {
			return nil, err
		}
		i, ok := index[spaceKey]
		if !ok {
			i = len(spaces)
			index[spaceKey] = i
			spaces = append(spaces, SpaceGroup{SpaceKey: spaceKey})
		}
		spaces[i].Pages = append(spaces[i].Pages, page)
		spaces[i].ScriptCount += page.ScriptCount
	}
	return spaces, rows.Err()
}

// --- Aggregates ---

// GetSpaceSummaries returns the per-space rollup from the sql_summary view.
func (d *Database) GetSpaceSummaries() ([]SpaceSummary, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spaceSummariesLocked()
}

// GetInsights computes the corpus-level aggregates in one call.
func (d *Database) GetInsights() (*Insights, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	insights := &Insights{}

	err := d.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT page_id), COUNT(DISTINCT space_key),
			COALESCE(SUM(line_count), 0), COALESCE(ROUND(AVG(line_count), 1), 0)
		FROM sql_scripts
	`).Scan(&insights.TotalScripts, &insights.TotalPages, &insights.TotalSpaces,
		&insights.TotalLines, &insights.AvgLines)
	if err != nil {
		return nil, err
	}

	var facets []Facet
	if facets, err = d.facetQuery(`SELECT sql_type, COUNT(*) FROM sql_scripts GROUP BY sql_type ORDER BY COUNT(*) DESC`); err != nil {
		return nil, err
	}
	insights.ByType = facets

	if facets, err = d.facetQuery(`SELECT sql_source, COUNT(*) FROM sql_scripts GROUP BY sql_source ORDER BY COUNT(*) DESC`); err != nil {
		return nil, err
	}
	insights.BySource = facets

	if facets, err = d.facetQuery(`SELECT ` + sizeBucketCase + ` as bucket, COUNT(*) FROM sql_scripts GROUP BY bucket ORDER BY MIN(line_count)`); err != nil {
		return nil, err
	}
	insights.BySize = facets

	if facets, err = d.facetQuery(`SELECT ` + nestingBucketCase + ` as bucket, COUNT(*) FROM sql_scripts GROUP BY bucket ORDER BY MIN(nesting_depth)`); err != nil {
		return nil, err
	}
	insights.ByNesting = facets

	if insights.TopTables, err = d.topReferences("tables_referenced", 20); err != nil {
		return nil, err
	}
	if insights.TopSchemas, err = d.topReferences("schemas_referenced", 20); err != nil {
		return nil, err
	}

	if facets, err = d.facetQuery(`SELECT page_title, script_count FROM v_top_pages LIMIT 10`); err != nil {
		return nil, err
	}
	insights.TopPages = facets

	if facets, err = d.facetQuery(`
		SELECT page_title || ' (' || sql_type || ')', keyword_count
		FROM sql_scripts ORDER BY keyword_count DESC, id LIMIT 10`); err != nil {
		return nil, err
	}
	insights.MostComplex = facets

	summaries, err := d.spaceSummariesLocked()
	if err != nil {
		return nil, err
	}
	insights.SpaceSummaries = summaries

	return insights, nil
}

func (d *Database) facetQuery(query string) ([]Facet, error) {
	rows, err := d.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var facets []Facet
	for rows.Next() {
		var f Facet
		if err := rows.Scan(&f.Value, &f.Count); err != nil {
			return nil, err
		}
		facets = append(facets, f)
	}
	return facets, rows.Err()
}

// topReferences tallies individual names out of the comma-separated reference
// columns. The lists are small so splitting in Go beats a recursive CTE.
func (d *Database) topReferences(column string, limit int) ([]Facet, error) {
	rows, err := d.db.Query(fmt.Sprintf(
		`SELECT %s FROM sql_scripts WHERE %s != ''`, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var list string
		if err := rows.Scan(&list); err != nil {
			return nil, err
		}
		for _, name := range strings.Split(list, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				counts[name]++
			}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	facets := make([]Facet, 0, len(counts))
	for name, count := range counts {
		facets = append(facets, Facet{Value: name, Count: count})
	}
	sortFacets(facets)
	if len(facets) > limit {
		facets = facets[:limit]
	}
	return facets, nil
}

// sortFacets orders by count descending, then name for stable output.
func sortFacets(facets []Facet) {
	sort.Slice(facets, func(i, j int) bool {
		if facets[i].Count != facets[j].Count {
			return facets[i].Count > facets[j].Count
		}
		return facets[i].Value < facets[j].Value
	})
}

// spaceSummariesLocked is GetSpaceSummaries without re-taking the lock, for
// callers already holding it.
func (d *Database) spaceSummariesLocked() ([]SpaceSummary, error) {
	rows, err := d.db.Query(`
		SELECT space_key, space_name, script_count, pages_with_sql, total_lines, avg_lines, max_lines, type_count
		FROM sql_summary
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []SpaceSummary
	for rows.Next() {
		var s SpaceSummary
		if err := rows.Scan(&s.SpaceKey, &s.SpaceName, &s.ScriptCount, &s.PagesWithSQL,
			&s.TotalLines, &s.AvgLines, &s.MaxLines, &s.TypeCount); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// FilterOptions returns the distinct values available for the dropdown
// filters: spaces, sql types and sources actually present in the data.
func (d *Database) FilterOptions() (spaces, types, sources []string, err error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if spaces, err = d.distinctColumn("space_key"); err != nil {
		return nil, nil, nil, err
	}
	if types, err = d.distinctColumn("sql_type"); err != nil {
		return nil, nil, nil, err
	}
	if sources, err = d.distinctColumn("sql_source"); err != nil {
		return nil, nil, nil, err
	}
	return spaces, types, sources, nil
}

func (d *Database) distinctColumn(column string) ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf(
		`SELECT DISTINCT %s FROM sql_scripts WHERE %s != '' ORDER BY %s`, column, column, column))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, rows.Err()
}
