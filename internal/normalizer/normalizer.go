// Package normalizer turns Confluence storage-format HTML into scannable
// structures: explicitly marked-up code blocks with their provenance, and a
// plain-text rendering of the whole page for the fallback scanner.
package normalizer

import (
	"strings"

	"golang.org/x/net/html"
)

// Kind identifies the structural element a block was lifted from.
type Kind string

const (
	KindCodeMacro Kind = "code-macro"
	KindNoformat  Kind = "noformat-macro"
	KindPre       Kind = "pre-tag"
	KindTableCell Kind = "table-cell"
)

// Block is one code-bearing substructure found in a page. The normalizer is
// purely structural; deciding whether a block is SQL belongs to the caller.
type Block struct {
	Code        string
	Language    string
	Title       string
	Description string
	Kind        Kind

	// RawCell marks table-cell blocks built from bare cell text rather than
	// a nested macro or pre tag.
	RawCell bool
}

// Extract parses the page HTML and returns all marked-up code blocks in
// document order: code macros, noformat macros, standalone pre tags, then
// table cells. Malformed input never panics; a macro that cannot be
// extracted is skipped without affecting the rest of the page.
func Extract(pageHTML string) []Block {
	if pageHTML == "" {
		return nil
	}

	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		// html.Parse recovers from almost anything; a hard error means
		// there is nothing to extract.
		return nil
	}

	var blocks []Block

	for _, macro := range findMacros(doc, "code") {
		if b, ok := extractCodeMacro(macro); ok {
			b.Description = nearbyContext(macro)
			blocks = append(blocks, b)
		}
	}

	for _, macro := range findMacros(doc, "noformat") {
		text := textContent(findChild(macro, "ac:plain-text-body"))
		if text != "" {
			blocks = append(blocks, Block{
				Code:        text,
				Kind:        KindNoformat,
				Description: nearbyContext(macro),
			})
		}
	}

	for _, pre := range findElements(doc, "pre") {
		if insideMacro(pre) {
			continue
		}
		text := textContent(pre)
		if text != "" {
			blocks = append(blocks, Block{
				Code:        text,
				Kind:        KindPre,
				Description: nearbyContext(pre),
			})
		}
	}

	for _, table := range findElements(doc, "table") {
		blocks = append(blocks, extractTableCells(table)...)
	}

	return blocks
}

// PlainText renders the entire page as text, one line per text chunk, for
// line-oriented scanning. CDATA bodies are included; script and style
// content is not.
func PlainText(pageHTML string) string {
	if pageHTML == "" {
		return ""
	}
	doc, err := html.Parse(strings.NewReader(pageHTML))
	if err != nil {
		return ""
	}

	var sb strings.Builder
	renderText(doc, &sb)
	return strings.TrimRight(sb.String(), "\n")
}

func renderText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.TextNode:
		if p := n.Parent; p != nil && (p.Data == "script" || p.Data == "style") {
			return
		}
		writeChunk(sb, n.Data)
		return
	case html.CommentNode:
		// The HTML tokenizer surfaces <![CDATA[...]]> sections, which carry
		// macro bodies in storage format, as comment nodes.
		if body, ok := cdataBody(n.Data); ok {
			writeChunk(sb, body)
		}
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		renderText(c, sb)
	}
}

func writeChunk(sb *strings.Builder, text string) {
	trimmed := strings.Trim(text, " \t\r\n")
	if trimmed == "" {
		return
	}
	sb.WriteString(trimmed)
	sb.WriteString("\n")
}

// extractCodeMacro pulls the language and title parameters and the code body
// out of an ac:structured-macro with name "code".
func extractCodeMacro(macro *html.Node) (Block, bool) {
	b := Block{Kind: KindCodeMacro}

	for _, param := range findElements(macro, "ac:parameter") {
		switch strings.ToLower(getAttr(param, "ac:name")) {
		case "language":
			b.Language = strings.TrimSpace(textContent(param))
		case "title":
			b.Title = strings.TrimSpace(textContent(param))
		}
	}

	if body := findChild(macro, "ac:plain-text-body"); body != nil {
		b.Code = textContent(body)
	} else if body := findChild(macro, "ac:rich-text-body"); body != nil {
		b.Code = textContent(body)
	}

	return b, b.Code != ""
}

// extractTableCells scans every cell of a table for nested code macros, pre
// tags, or raw text. When a row looks like a "name -> script" pairing, the
// first cell's text rides along as the block description.
func extractTableCells(table *html.Node) []Block {
	var blocks []Block

	for _, row := range findElements(table, "tr") {
		cells := findCells(row)

		rowContext := ""
		if len(cells) >= 2 {
			first := strings.TrimSpace(textContent(cells[0]))
			if first != "" && len(first) < 200 {
				rowContext = first
			}
		}

		for _, cell := range cells {
			for _, b := range extractCell(cell) {
				if b.Description == "" {
					b.Description = rowContext
				}
				blocks = append(blocks, b)
			}
		}
	}
	return blocks
}

func extractCell(cell *html.Node) []Block {
	var blocks []Block

	for _, macro := range findMacros(cell, "code") {
		if b, ok := extractCodeMacro(macro); ok {
			b.Kind = KindTableCell
			blocks = append(blocks, b)
		}
	}

	for _, pre := range findElements(cell, "pre") {
		if insideMacro(pre) {
			continue
		}
		if text := textContent(pre); text != "" {
			blocks = append(blocks, Block{Code: text, Kind: KindTableCell})
		}
	}
	for _, code := range findElements(cell, "code") {
		if insideMacro(code) || hasAncestor(code, "pre") {
			continue
		}
		if text := textContent(code); text != "" {
			blocks = append(blocks, Block{Code: text, Kind: KindTableCell})
		}
	}

	// Raw cell text only when no structured code was found inside it.
	if len(blocks) == 0 {
		if text := textContent(cell); text != "" {
			blocks = append(blocks, Block{Code: text, Kind: KindTableCell, RawCell: true})
		}
	}

	return blocks
}

// nearbyContext walks previous siblings looking for headings or paragraphs
// that describe the block, nearest last.
func nearbyContext(n *html.Node) string {
	var parts []string
	count := 0
	for sib := n.PrevSibling; sib != nil && count < 3; sib = sib.PrevSibling {
		if sib.Type != html.ElementNode {
			continue
		}
		count++
		switch sib.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6", "p":
			text := strings.TrimSpace(textContent(sib))
			if text != "" && len(text) < 200 {
				parts = append([]string{text}, parts...)
			}
		}
	}
	return strings.Join(parts, " | ")
}

// --- DOM helpers ---

func findMacros(root *html.Node, name string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && strings.EqualFold(getAttr(n, "ac:name"), name) {
			out = append(out, n)
			return false
		}
		return true
	})
	return out
}

func findElements(root *html.Node, tag string) []*html.Node {
	var out []*html.Node
	walk(root, func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == tag {
			out = append(out, n)
		}
		return true
	})
	return out
}

func findChild(root *html.Node, tag string) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if found == nil && n.Type == html.ElementNode && n.Data == tag {
			found = n
			return false
		}
		return found == nil
	})
	return found
}

func findCells(row *html.Node) []*html.Node {
	var cells []*html.Node
	walk(row, func(n *html.Node) bool {
		if n.Type == html.ElementNode && (n.Data == "td" || n.Data == "th") {
			cells = append(cells, n)
			return false
		}
		return true
	})
	return cells
}

// walk visits nodes depth-first; fn returning false skips the children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func insideMacro(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && getAttr(p, "ac:name") != "" {
			return true
		}
	}
	return false
}

func hasAncestor(n *html.Node, tag string) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == tag {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, key) {
			return attr.Val
		}
	}
	return ""
}

// textContent collects the text of a node tree, joining chunks with
// newlines. CDATA comment nodes count as text because macro bodies arrive
// that way.
func textContent(n *html.Node) string {
	if n == nil {
		return ""
	}
	var sb strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			writeChunk(&sb, n.Data)
			return
		case html.CommentNode:
			if body, ok := cdataBody(n.Data); ok {
				writeChunk(&sb, body)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.TrimRight(sb.String(), "\n")
}

// cdataBody unwraps "[CDATA[...]]" comment data.
func cdataBody(data string) (string, bool) {
	if strings.HasPrefix(data, "[CDATA[") {
		return strings.TrimSuffix(strings.TrimPrefix(data, "[CDATA["), "]]"), true
	}
	return "", false
}
