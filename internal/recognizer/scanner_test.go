package recognizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanTextSingleStatement(t *testing.T) {
	text := strings.Join([]string{
		"SELECT id, name, email",
		"FROM users",
		"WHERE active = 1",
		"ORDER BY name;",
	}, "\n")

	blocks := ScanText(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, text, blocks[0])
}

func TestScanTextProseTerminatesBlock(t *testing.T) {
	text := strings.Join([]string{
		"Here is the cleanup query we run nightly:",
		"DELETE FROM audit_log",
		"WHERE created_at < SYSDATE - 30;",
		"This query removes all the old entries.",
	}, "\n")

	blocks := ScanText(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, "DELETE FROM audit_log\nWHERE created_at < SYSDATE - 30;", blocks[0])
	assert.NotContains(t, blocks[0], "This query")
}

func TestScanTextSemicolonBlankEndsStatement(t *testing.T) {
	text := strings.Join([]string{
		"SELECT id, total",
		"FROM orders;",
		"",
		"SELECT name, email",
		"FROM customers;",
	}, "\n")

	blocks := ScanText(text)
	require.Len(t, blocks, 2)
	assert.Equal(t, "SELECT id, total\nFROM orders;", blocks[0])
	assert.Equal(t, "SELECT name, email\nFROM customers;", blocks[1])
}

// A PL/SQL block is captured whole including its trailing slash; semicolons
// and blank lines inside it do not terminate.
func TestScanTextPLSQLBlockWithSlash(t *testing.T) {
	lines := []string{
		"CREATE OR REPLACE PROCEDURE reset_totals AS",
		"BEGIN",
		"  UPDATE orders SET total = 0;",
		"",
		"  COMMIT;",
		"END;",
		"/",
	}

	blocks := ScanText(strings.Join(lines, "\n"))
	require.Len(t, blocks, 1)
	assert.Equal(t, strings.Join(lines, "\n"), blocks[0])
}

// END; with no trailing slash still closes the block.
func TestScanTextPLSQLBlockWithoutSlash(t *testing.T) {
	lines := []string{
		"DECLARE",
		"  v_count NUMBER;",
		"BEGIN",
		"  SELECT COUNT(*) INTO v_count FROM orders;",
		"END;",
	}
	text := strings.Join(lines, "\n") + "\nThe procedure above counts the orders."

	blocks := ScanText(text)
	require.Len(t, blocks, 1)
	assert.Equal(t, strings.Join(lines, "\n"), blocks[0])
}

func TestScanTextOpenParensKeepBlockAlive(t *testing.T) {
	text := strings.Join([]string{
		"INSERT INTO settings (key_name, value_text)",
		"VALUES (",
		"",
		"  'retention_days',",
		"  '30'",
		");",
	}, "\n")

	blocks := ScanText(text)
	require.Len(t, blocks, 1)
	assert.Contains(t, blocks[0], "'retention_days',")
	assert.Contains(t, blocks[0], ");")
}

func TestScanTextFalseStartRejected(t *testing.T) {
	// A starter keyword followed by nothing SQL-ish must not survive the
	// final LooksLikeSQL gate.
	blocks := ScanText("UPDATE\n\n\nSome unrelated paragraph of text here.")
	assert.Empty(t, blocks)
}

func TestScanTextEmpty(t *testing.T) {
	assert.Nil(t, ScanText(""))
}

func TestParenDelta(t *testing.T) {
	tests := []struct {
		name string
		line string
		want int
	}{
		{"balanced", "SELECT COUNT(*) FROM t", 0},
		{"opens", "VALUES (", 1},
		{"closes", ");", -1},
		{"paren inside single quotes ignored", "VALUES ('a(b', 1)", 0},
		{"paren inside double quotes ignored", `WHERE label = "(open)"`, 0},
		{"escaped quote does not close string", `VALUES ('it\'s (a) test')`, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parenDelta(tt.line))
		})
	}
}
