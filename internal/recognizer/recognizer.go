// Package recognizer decides what is SQL. It classifies the structural blocks
// the normalizer lifts out of a page, runs the line scanner over the page's
// plain text for unmarked SQL, and labels every find with its provenance.
package recognizer

import (
	"github.com/sql-miner/sqlminer/internal/dedup"
	"github.com/sql-miner/sqlminer/internal/normalizer"
)

// Provenance labels, most trustworthy first. Within a page, a fragment found
// through a more trustworthy source keeps that label even when the plain-text
// scanner later finds the same text.
const (
	SourceCodeMacroLabeled  = "code-macro-labeled"
	SourceCodeMacroDetected = "code-macro-detected"
	SourceNoformatMacro     = "noformat-macro"
	SourcePreTag            = "pre-tag"
	SourceTableCell         = "table-cell"
	SourcePlainTextScan     = "plain-text-scan"
)

// Fragment is one recognized SQL script with its wiki provenance.
type Fragment struct {
	SQL         string
	Language    string
	Title       string
	Description string
	Source      string
}

// ExtractAll finds every SQL fragment in a page: structured blocks first,
// then a plain-text scan for SQL pasted without any markup. Fragments are
// deduplicated within the page by normalized digest, so the structured
// occurrence of a script wins over its plain-text echo.
func ExtractAll(pageHTML string) []Fragment {
	var fragments []Fragment
	seen := dedup.NewSet()

	add := func(f Fragment) {
		if !seen.Record(dedup.Hash(f.SQL)) {
			return
		}
		if f.Language == "" {
			f.Language = "detected"
		}
		fragments = append(fragments, f)
	}

	for _, block := range normalizer.Extract(pageHTML) {
		if f, ok := classifyBlock(block); ok {
			add(f)
		}
	}

	pageText := normalizer.PlainText(pageHTML)
	for _, sqlBlock := range ScanText(pageText) {
		add(Fragment{
			SQL:         sqlBlock,
			Description: ContextBefore(pageText, sqlBlock),
			Source:      SourcePlainTextScan,
		})
	}

	return fragments
}

// classifyBlock decides whether a structural block is SQL and assigns its
// provenance label. Labeled code macros are trusted on the language tag
// alone; everything else must pass the content heuristic.
func classifyBlock(block normalizer.Block) (Fragment, bool) {
	f := Fragment{
		SQL:         block.Code,
		Language:    block.Language,
		Title:       block.Title,
		Description: block.Description,
	}

	switch block.Kind {
	case normalizer.KindCodeMacro:
		if IsSQLLanguage(block.Language) {
			f.Source = SourceCodeMacroLabeled
			return f, true
		}
		if block.Language == "" && LooksLikeSQL(block.Code) {
			f.Source = SourceCodeMacroDetected
			return f, true
		}
		// A non-SQL language tag (java, python, bash) is an explicit
		// statement of intent; do not second-guess it.
		return Fragment{}, false

	case normalizer.KindNoformat:
		if LooksLikeSQL(block.Code) {
			f.Source = SourceNoformatMacro
			return f, true
		}

	case normalizer.KindPre:
		if LooksLikeSQL(block.Code) {
			f.Source = SourcePreTag
			return f, true
		}

	case normalizer.KindTableCell:
		if IsSQLLanguage(block.Language) {
			f.Source = SourceTableCell
			return f, true
		}
		if LooksLikeSQL(block.Code) {
			f.Source = SourceTableCell
			f.Language = ""
			if block.RawCell {
				f.Language = "detected-from-cell"
			}
			return f, true
		}
	}

	return Fragment{}, false
}
