package recognizer

import "strings"

// IsSQLLanguage reports whether a code block's language parameter names a SQL
// dialect.
func IsSQLLanguage(language string) bool {
	if language == "" {
		return false
	}
	lower := strings.ToLower(strings.TrimSpace(language))
	for _, lang := range sqlLanguages {
		if strings.Contains(lower, lang) {
			return true
		}
	}
	return false
}

// LooksLikeSQL heuristically decides whether text is SQL. Deliberately
// recall-biased: at least two keyword pattern hits and 20 characters. False
// positives are cheaper than misses because deduplication absorbs overlap
// downstream.
func LooksLikeSQL(text string) bool {
	if len(strings.TrimSpace(text)) < minSQLLength {
		return false
	}
	hits := 0
	for _, pattern := range sqlKeywordPatterns {
		if pattern.MatchString(text) {
			hits++
			if hits >= minKeywordHits {
				return true
			}
		}
	}
	return false
}

// keywordHits counts how many distinct detection patterns match the text.
func keywordHits(text string) int {
	hits := 0
	for _, pattern := range sqlKeywordPatterns {
		if pattern.MatchString(text) {
			hits++
		}
	}
	return hits
}

// IsStarterLine reports whether a line opens a new SQL statement.
// Continuation-only keywords (BEGIN, LOOP, EXCEPTION, END, WHEN, THEN) never
// match here; they only extend an already-open block.
func IsStarterLine(line string) bool {
	for _, pattern := range statementStarters {
		if pattern.MatchString(line) {
			return true
		}
	}
	return false
}

// IsContinuationLine reports whether a non-blank line likely continues an
// ongoing statement.
func IsContinuationLine(line string) bool {
	if strings.TrimSpace(line) == "" {
		return false
	}
	for _, pattern := range continuationPatterns {
		if pattern.MatchString(line) {
			return true
		}
	}
	return keywordHits(line) >= 1
}

// LooksLikeProse reports whether a line reads like natural language rather
// than code. SQL-leading tokens and SQL idioms disqualify a line before any
// sentence heuristic is consulted.
func LooksLikeProse(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	upper := strings.ToUpper(line)
	for _, word := range proseDisqualifiers {
		if strings.HasPrefix(upper, word+" ") || strings.HasPrefix(upper, word+"\t") || upper == word {
			return false
		}
	}
	for _, pattern := range sqlIdiomPatterns {
		if pattern.MatchString(upper) {
			return false
		}
	}

	for _, pattern := range prosePatterns {
		if pattern.MatchString(line) {
			// SQL comments can end in periods too.
			if !strings.HasPrefix(line, "--") {
				return true
			}
		}
	}
	return false
}

// isPLSQLStart reports whether a line opens a PL/SQL block (stored procedure,
// function, package, trigger, type, or anonymous DECLARE block).
func isPLSQLStart(line string) bool {
	trimmed := strings.TrimSpace(line)
	for _, pattern := range plsqlStarters {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

// isPLSQLEnd reports whether a line closes a PL/SQL block: a bare slash, or
// END with or without its semicolon.
func isPLSQLEnd(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "/" {
		return true
	}
	upper := strings.ToUpper(trimmed)
	return upper == "END;" || upper == "END"
}
