package recognizer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractAllLabeledMacroWinsOverPlainTextEcho(t *testing.T) {
	// The same SQL appears in a labeled code macro and again as paragraph
	// text; the structured occurrence keeps its provenance and the echo is
	// deduplicated away.
	page := `<h2>Nightly cleanup</h2>` +
		`<ac:structured-macro ac:name="code">` +
		`<ac:parameter ac:name="language">sql</ac:parameter>` +
		`<ac:parameter ac:name="title">Cleanup</ac:parameter>` +
		`<ac:plain-text-body><![CDATA[DELETE FROM audit_log WHERE created_at < SYSDATE - 30;]]></ac:plain-text-body>` +
		`</ac:structured-macro>` +
		`<p>DELETE FROM audit_log WHERE created_at &lt; SYSDATE - 30;</p>`

	fragments := ExtractAll(page)
	require.Len(t, fragments, 1)

	f := fragments[0]
	assert.Equal(t, SourceCodeMacroLabeled, f.Source)
	assert.Equal(t, "sql", f.Language)
	assert.Equal(t, "Cleanup", f.Title)
	assert.Equal(t, "Nightly cleanup", f.Description)
	assert.Equal(t, "DELETE FROM audit_log WHERE created_at < SYSDATE - 30;", f.SQL)
}

func TestExtractAllNonSQLLanguageTagRejected(t *testing.T) {
	page := `<ac:structured-macro ac:name="code">` +
		`<ac:parameter ac:name="language">java</ac:parameter>` +
		`<ac:plain-text-body><![CDATA[System.out.println("hello world, again");]]></ac:plain-text-body>` +
		`</ac:structured-macro>`

	assert.Empty(t, ExtractAll(page))
}

func TestExtractAllUnlabeledMacroDetectedByContent(t *testing.T) {
	page := `<ac:structured-macro ac:name="code">` +
		`<ac:plain-text-body><![CDATA[SELECT id, name FROM users WHERE active = 1;]]></ac:plain-text-body>` +
		`</ac:structured-macro>`

	fragments := ExtractAll(page)
	require.Len(t, fragments, 1)
	assert.Equal(t, SourceCodeMacroDetected, fragments[0].Source)
	assert.Equal(t, "detected", fragments[0].Language)
}

func TestExtractAllNoformatMacro(t *testing.T) {
	page := `<ac:structured-macro ac:name="noformat">` +
		`<ac:plain-text-body><![CDATA[UPDATE orders SET status = 'SHIPPED' WHERE id = 42;]]></ac:plain-text-body>` +
		`</ac:structured-macro>`

	fragments := ExtractAll(page)
	require.Len(t, fragments, 1)
	assert.Equal(t, SourceNoformatMacro, fragments[0].Source)
}

func TestExtractAllStandalonePreTag(t *testing.T) {
	page := "<p>Intro</p><pre>SELECT id, name\nFROM users\nWHERE active = 1;</pre>"

	fragments := ExtractAll(page)
	require.Len(t, fragments, 1)
	assert.Equal(t, SourcePreTag, fragments[0].Source)
	assert.Contains(t, fragments[0].SQL, "FROM users")
}

func TestExtractAllTableCellWithRowContext(t *testing.T) {
	page := `<table><tr>` +
		`<td>Daily revenue</td>` +
		`<td>SELECT SUM(total) FROM orders WHERE order_date = SYSDATE</td>` +
		`</tr></table>`

	fragments := ExtractAll(page)
	require.Len(t, fragments, 1)

	f := fragments[0]
	assert.Equal(t, SourceTableCell, f.Source)
	assert.Equal(t, "detected-from-cell", f.Language)
	assert.Equal(t, "Daily revenue", f.Description)
}

func TestExtractAllPlainTextScanWithContext(t *testing.T) {
	page := `<p>Run this to check pending orders:</p>` +
		`<p>SELECT COUNT(*) FROM orders WHERE status = 'PENDING';</p>`

	fragments := ExtractAll(page)
	require.Len(t, fragments, 1)

	f := fragments[0]
	assert.Equal(t, SourcePlainTextScan, f.Source)
	assert.Equal(t, "detected", f.Language)
	assert.Equal(t, "Run this to check pending orders:", f.Description)
}

func TestExtractAllEmptyPage(t *testing.T) {
	assert.Empty(t, ExtractAll(""))
	assert.Empty(t, ExtractAll("<p>Nothing but prose on this page.</p>"))
}

func TestContextBefore(t *testing.T) {
	pageText := "Reporting notes\n" +
		"Run this to rebuild the totals:\n" +
		"UPDATE totals SET amount = 0 WHERE period = 'Q1';"

	got := ContextBefore(pageText, "UPDATE totals SET amount = 0 WHERE period = 'Q1';")
	assert.Equal(t, "Reporting notes | Run this to rebuild the totals:", got)
}

func TestContextBeforeStopsAtPrecedingSQL(t *testing.T) {
	pageText := "SELECT 1 FROM dual;\n" +
		"And here is the second one:\n" +
		"SELECT 2 FROM dual;"

	got := ContextBefore(pageText, "SELECT 2 FROM dual;")
	assert.Equal(t, "And here is the second one:", got)
}
