package recognizer

import (
	"sort"
	"strings"
)

// Metrics holds the derived, analytics-ready scalars for one fragment.
// Computed once at persistence time so the read side never rescans SQL text.
type Metrics struct {
	NestingDepth int
	KeywordCount int
	SQLType      string
	Tables       []string
	Schemas      []string
}

// ComputeMetrics derives all fragment metrics in one pass per concern.
func ComputeMetrics(sqlCode string) Metrics {
	return Metrics{
		NestingDepth: NestingDepth(sqlCode),
		KeywordCount: KeywordCount(sqlCode),
		SQLType:      ClassifySQLType(sqlCode),
		Tables:       TableReferences(sqlCode),
		Schemas:      SchemaReferences(sqlCode),
	}
}

// NestingDepth returns the maximum parenthesis nesting level reached in the
// SQL, ignoring parens inside string literals. Never negative.
func NestingDepth(sqlCode string) int {
	maxDepth := 0
	depth := 0
	inString := false
	var stringChar byte

	for i := 0; i < len(sqlCode); i++ {
		c := sqlCode[i]
		if c == '\'' || c == '"' {
			if i > 0 && sqlCode[i-1] == '\\' {
				continue
			}
			if !inString {
				inString = true
				stringChar = c
			} else if c == stringChar {
				inString = false
			}
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '(':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case ')':
			if depth > 0 {
				depth--
			}
		}
	}
	return maxDepth
}

// KeywordCount counts all SQL keyword occurrences as a complexity estimate.
func KeywordCount(sqlCode string) int {
	count := 0
	for _, pattern := range complexityKeywords {
		count += len(pattern.FindAllStringIndex(sqlCode, -1))
	}
	return count
}

// SubqueryCount counts SELECTs beyond the outermost one.
func SubqueryCount(sqlCode string) int {
	selects := len(selectKeyword.FindAllStringIndex(sqlCode, -1))
	if selects <= 1 {
		return 0
	}
	return selects - 1
}

var selectKeyword = compileAll([]string{`\bSELECT\b`})[0]

// ClassifySQLType determines the primary statement type from the leading
// keyword, with CREATE refined by object kind.
func ClassifySQLType(sqlCode string) string {
	upper := strings.ToUpper(strings.TrimSpace(sqlCode))

	switch {
	case strings.HasPrefix(upper, "SELECT"), strings.HasPrefix(upper, "WITH"):
		return "SELECT"
	case strings.HasPrefix(upper, "INSERT"):
		return "INSERT"
	case strings.HasPrefix(upper, "UPDATE"):
		return "UPDATE"
	case strings.HasPrefix(upper, "DELETE"):
		return "DELETE"
	case strings.HasPrefix(upper, "CREATE"):
		return classifyCreate(upper)
	case strings.HasPrefix(upper, "ALTER"):
		return "ALTER"
	case strings.HasPrefix(upper, "DROP"):
		return "DROP"
	case strings.HasPrefix(upper, "MERGE"):
		return "MERGE"
	case strings.HasPrefix(upper, "DECLARE"), strings.HasPrefix(upper, "BEGIN"):
		return "PL/SQL BLOCK"
	case strings.HasPrefix(upper, "GRANT"), strings.HasPrefix(upper, "REVOKE"):
		return "DCL"
	case strings.HasPrefix(upper, "TRUNCATE"):
		return "TRUNCATE"
	}
	return "OTHER"
}

func classifyCreate(upper string) string {
	switch {
	case strings.Contains(upper, "PROCEDURE"):
		return "CREATE PROCEDURE"
	case strings.Contains(upper, "FUNCTION"):
		return "CREATE FUNCTION"
	case strings.Contains(upper, "PACKAGE"):
		return "CREATE PACKAGE"
	case strings.Contains(upper, "TRIGGER"):
		return "CREATE TRIGGER"
	case strings.Contains(upper, "VIEW"):
		return "CREATE VIEW"
	case strings.Contains(upper, "TABLE"):
		return "CREATE TABLE"
	case strings.Contains(upper, "INDEX"):
		return "CREATE INDEX"
	}
	return "CREATE OTHER"
}

// Table names that are really keywords, filtered from reference extraction.
var tableRefStopwords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "SET": true,
	"VALUES": true, "INTO": true, "TABLE": true,
}

// Schemas excluded from schema extraction (Oracle system references).
var schemaStopwords = map[string]bool{
	"SYS": true, "DUAL": true,
}

// TableReferences extracts table names from FROM/JOIN/INTO/UPDATE/TABLE/
// TRUNCATE clauses, case-normalized and sorted. Qualified names keep only
// the table part.
func TableReferences(sqlCode string) []string {
	seen := make(map[string]bool)
	for _, pattern := range tableRefPatterns {
		for _, match := range pattern.FindAllStringSubmatch(sqlCode, -1) {
			name := strings.ToUpper(match[1])
			if tableRefStopwords[name] {
				continue
			}
			if dot := strings.LastIndex(name, "."); dot >= 0 {
				name = name[dot+1:]
			}
			if name != "" {
				seen[name] = true
			}
		}
	}
	return sortedKeys(seen)
}

// SchemaReferences extracts schema names from the qualified table names the
// table-clause patterns capture, case-normalized and sorted. Only positions
// that name a table qualify: alias.column tokens elsewhere in the statement
// are not schemas.
func SchemaReferences(sqlCode string) []string {
	seen := make(map[string]bool)
	for _, pattern := range tableRefPatterns {
		for _, match := range pattern.FindAllStringSubmatch(sqlCode, -1) {
			name := strings.ToUpper(match[1])
			dot := strings.IndexByte(name, '.')
			if dot < 0 {
				continue
			}
			schema := name[:dot]
			if schemaStopwords[schema] || tableRefStopwords[schema] {
				continue
			}
			seen[schema] = true
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
