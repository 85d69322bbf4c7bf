package recognizer

import "strings"

// contextLines caps how many preceding text lines describe a fragment.
const contextLines = 5

// contextMaxLen caps the assembled description length.
const contextMaxLen = 200

// ContextBefore collects the prose immediately preceding a scanned block in
// the page text, to serve as the fragment's description. It walks backwards
// from the block's first line, keeping up to contextLines non-blank lines
// that are not themselves SQL, joined nearest-last with " | ".
func ContextBefore(pageText, sqlBlock string) string {
	firstLine := sqlBlock
	if idx := strings.IndexByte(sqlBlock, '\n'); idx >= 0 {
		firstLine = sqlBlock[:idx]
	}
	firstLine = strings.TrimSpace(firstLine)
	if firstLine == "" {
		return ""
	}

	lines := strings.Split(pageText, "\n")
	at := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == firstLine {
			at = i
			break
		}
	}
	if at <= 0 {
		return ""
	}

	var parts []string
	total := 0
	for i := at - 1; i >= 0 && len(parts) < contextLines; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		// Stop at preceding SQL so one block's text never describes another.
		if IsStarterLine(line) || keywordHits(line) >= minKeywordHits {
			break
		}
		if total+len(line) > contextMaxLen {
			break
		}
		parts = append([]string{line}, parts...)
		total += len(line)
	}
	return strings.Join(parts, " | ")
}
