package recognizer

import "strings"

// scanState holds the per-page line scanner state. It lives for exactly one
// ScanText call and is never shared.
type scanState struct {
	block         []string
	inSQL         bool
	inPLSQL       bool
	blankLines    int
	prevComma     bool
	prevSemicolon bool
	openParens    int
}

// start begins a new block at the given line.
func (s *scanState) start(line, stripped string, plsql bool) {
	s.block = []string{line}
	s.inSQL = true
	s.inPLSQL = plsql
	s.blankLines = 0
	s.prevComma = strings.HasSuffix(stripped, ",")
	s.prevSemicolon = strings.HasSuffix(stripped, ";")
	s.openParens = parenDelta(stripped)
	if s.openParens < 0 {
		s.openParens = 0
	}
}

// reset discards block state after an emit or rejection.
func (s *scanState) reset() {
	s.block = nil
	s.inSQL = false
	s.inPLSQL = false
	s.blankLines = 0
	s.openParens = 0
}

// flush validates the buffered block and appends it to out if it still looks
// like SQL. Guards against false starts where only the first line matched.
func (s *scanState) flush(out []string) []string {
	if len(s.block) > 0 {
		text := strings.Join(s.block, "\n")
		if LooksLikeSQL(text) {
			out = append(out, text)
		}
	}
	return out
}

// ScanText extracts SQL blocks from plain text by classifying each line as
// statement start, continuation, or prose. This is the fallback path for SQL
// pasted as ordinary paragraphs with no code markup at all.
func ScanText(text string) []string {
	if text == "" {
		return nil
	}

	lines := strings.Split(text, "\n")
	var blocks []string
	var s scanState

	for i, line := range lines {
		stripped := strings.TrimSpace(line)

		if s.inSQL {
			s.openParens += parenDelta(stripped)
			if s.openParens < 0 {
				s.openParens = 0
			}
		}

		switch {
		case isPLSQLStart(stripped):
			blocks = s.flush(blocks)
			s.start(line, stripped, true)

		case s.inPLSQL:
			// Inside a PL/SQL block blank lines and semicolons do not
			// terminate; only END;/END or a bare slash do.
			s.block = append(s.block, line)
			if stripped == "" {
				s.blankLines++
			} else {
				s.blankLines = 0
			}

			if isPLSQLEnd(stripped) {
				if stripped == "/" {
					blocks = s.flush(blocks)
					s.reset()
				} else if !slashFollows(lines, i) {
					// END; with no trailing slash coming: close here.
					blocks = s.flush(blocks)
					s.reset()
				}
			}

		case IsStarterLine(stripped):
			blocks = s.flush(blocks)
			s.start(line, stripped, false)

		case s.inSQL:
			blocks = s.continueBlock(blocks, line, stripped)
		}
	}

	return s.flush(blocks)
}

// continueBlock applies the continuation/termination rules for an ordinary
// (non-PL/SQL) statement in progress.
func (s *scanState) continueBlock(blocks []string, line, stripped string) []string {
	if stripped == "" {
		s.blankLines++
		switch {
		case s.prevSemicolon && s.blankLines >= 1 && s.openParens <= 0:
			// A semicolon followed by a blank line usually ends the
			// statement, unless the block opened a BEGIN it has not closed.
			upper := strings.ToUpper(strings.Join(s.block, "\n"))
			if strings.Contains(upper, "BEGIN") && !strings.Contains(upper, "END") {
				s.block = append(s.block, line)
			} else {
				blocks = s.flush(blocks)
				s.reset()
			}
		case s.blankLines >= 2 && s.openParens <= 0 && !s.prevComma:
			blocks = s.flush(blocks)
			s.reset()
		default:
			s.block = append(s.block, line)
		}
		return blocks
	}

	if LooksLikeProse(stripped) {
		blocks = s.flush(blocks)
		s.reset()
		return blocks
	}

	if s.shouldContinue(line, stripped) {
		s.block = append(s.block, line)
		s.blankLines = 0
		s.prevComma = strings.HasSuffix(stripped, ",")
		s.prevSemicolon = strings.HasSuffix(stripped, ";")
		return blocks
	}

	// PL/SQL style terminators close the block and belong to it.
	if isPLSQLEnd(stripped) {
		s.block = append(s.block, line)
	}
	blocks = s.flush(blocks)
	s.reset()
	return blocks
}

// shouldContinue decides whether a non-blank, non-prose line extends the
// current block.
func (s *scanState) shouldContinue(line, stripped string) bool {
	switch {
	case IsContinuationLine(stripped):
		return true
	case strings.HasSuffix(stripped, ";"):
		return true
	case strings.HasSuffix(stripped, ","):
		return true
	case s.prevComma:
		return true
	case s.openParens > 0:
		return true
	case LooksLikeSQL(stripped):
		return true
	case (strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t")) && len(stripped) < 100:
		return true
	case stripped == "/" || stripped == "BEGIN" || stripped == "EXCEPTION" ||
		strings.EqualFold(stripped, "END;") || strings.EqualFold(stripped, "END"):
		return true
	case len(stripped) < 60 && identifierLine.MatchString(stripped):
		// Column names, parameter lists. Prose check repeated on purpose:
		// identifier-shaped lines can still read like labels.
		return !LooksLikeProse(stripped)
	}
	return false
}

// slashFollows reports whether the next non-blank line within two lines of
// index i is a bare slash, meaning an END; is about to be closed by /.
func slashFollows(lines []string, i int) bool {
	for j := i + 1; j < len(lines) && j <= i+2; j++ {
		next := strings.TrimSpace(lines[j])
		if next == "/" {
			return true
		}
		if next != "" {
			return false
		}
	}
	return false
}

// parenDelta returns the net parenthesis count of a line, ignoring parens
// inside single- or double-quoted string literals. Escaped quotes do not
// toggle the string state.
func parenDelta(line string) int {
	delta := 0
	inString := false
	var stringChar byte

	for i := 0; i < len(line); i++ {
		c := line[i]
		if c == '\'' || c == '"' {
			if i > 0 && line[i-1] == '\\' {
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
			delta++
		case ')':
			delta--
		}
	}
	return delta
}
