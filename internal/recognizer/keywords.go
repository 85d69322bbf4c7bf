package recognizer

import "regexp"

// Language identifiers that mark a code block as SQL (substring match,
// case-insensitive). Covers the dialect tags seen in real wiki exports.
var sqlLanguages = []string{
	"sql", "plsql", "pl/sql", "oracle", "oraclesql", "oracle-sql",
	"tsql", "t-sql", "mssql", "ms-sql", "sqlserver", "sql-server",
	"mysql", "postgresql", "postgres", "sqlite", "db2", "sybase",
	"transact-sql", "ansi-sql", "ddl", "dml",
}

// Patterns that strongly indicate SQL content. Used by LooksLikeSQL to
// classify unlabeled blocks: a text needs at least minKeywordHits distinct
// pattern hits to count as SQL.
var sqlKeywordPatterns = compileAll([]string{
	`\bSELECT\b`, `\bFROM\b`, `\bWHERE\b`, `\bINSERT\b`, `\bUPDATE\b`,
	`\bDELETE\b`, `\bCREATE\s+TABLE\b`, `\bALTER\s+TABLE\b`, `\bDROP\s+TABLE\b`,
	`\bCREATE\s+INDEX\b`, `\bCREATE\s+VIEW\b`, `\bCREATE\s+PROCEDURE\b`,
	`\bCREATE\s+FUNCTION\b`, `\bCREATE\s+TRIGGER\b`, `\bCREATE\s+PACKAGE\b`,
	`\bINSERT\s+INTO\b`, `\bVALUES\s*\(`, `\bDELETE\s+FROM\b`,
	`\bBEGIN\b`, `\bEND\b`, `\bDECLARE\b`, `\bEXECUTE\b`, `\bEXEC\b`,
	`\bGRANT\b`, `\bREVOKE\b`, `\bCOMMIT\b`, `\bROLLBACK\b`,
	`\bMERGE\s+INTO\b`, `\bTRUNCATE\b`, `\bJOIN\b`, `\bLEFT\s+JOIN\b`,
	`\bINNER\s+JOIN\b`, `\bOUTER\s+JOIN\b`, `\bUNION\b`, `\bGROUP\s+BY\b`,
	`\bORDER\s+BY\b`, `\bHAVING\b`, `\bDISTINCT\b`, `\bCOUNT\s*\(`,
	`\bSUM\s*\(`, `\bAVG\s*\(`, `\bMAX\s*\(`, `\bMIN\s*\(`,
	// Oracle / PL/SQL
	`\bPLS_INTEGER\b`, `\bVARCHAR2\b`, `\bNUMBER\b`, `\bSYSDATE\b`,
	`\bNVL\b`, `\bDECODE\b`, `\bROWNUM\b`, `\bROWID\b`, `\bDBMS_`,
	`\bUTL_`, `\bCURSOR\b`, `\bFETCH\b`, `\bOPEN\b`, `\bCLOSE\b`,
	`\bLOOP\b`, `\bEXIT\s+WHEN\b`, `\bFOR\s+.*\s+IN\b`, `\bEXCEPTION\b`,
	`\bRAISE\b`, `\bPRAGMA\b`, `\bBULK\s+COLLECT\b`, `\bFORALL\b`,
})

// minKeywordHits is the detection threshold for unlabeled blocks.
const minKeywordHits = 2

// minSQLLength is the minimum trimmed length LooksLikeSQL will accept.
const minSQLLength = 20

// Statement-leading keywords. BEGIN, LOOP, EXCEPTION and friends are
// deliberately absent: they only ever continue an already-open block.
var statementStarters = compileAll([]string{
	`^\s*SELECT\b`,
	`^\s*INSERT\b`,
	`^\s*UPDATE\b`,
	`^\s*DELETE\b`,
	`^\s*CREATE\b`,
	`^\s*ALTER\b`,
	`^\s*DROP\b`,
	`^\s*TRUNCATE\b`,
	`^\s*GRANT\b`,
	`^\s*REVOKE\b`,
	`^\s*MERGE\b`,
	`^\s*DECLARE\b`,
	`^\s*EXEC(UTE)?\b`,
	`^\s*WITH\b`,
	`^\s*CALL\b`,
	`^\s*COMMIT\b`,
	`^\s*ROLLBACK\b`,
})

// Lines that likely continue a SQL statement already in progress.
var continuationPatterns = compileAll([]string{
	`^\s*FROM\b`,
	`^\s*WHERE\b`,
	`^\s*AND\b`,
	`^\s*OR\b`,
	`^\s*JOIN\b`,
	`^\s*(LEFT|RIGHT|INNER|OUTER|CROSS)\s+JOIN\b`,
	`^\s*ON\b`,
	`^\s*GROUP\s+BY\b`,
	`^\s*ORDER\s+BY\b`,
	`^\s*HAVING\b`,
	`^\s*UNION\b`,
	`^\s*INTERSECT\b`,
	`^\s*MINUS\b`,
	`^\s*INTO\b`,
	`^\s*VALUES\b`,
	`^\s*SET\b`,
	`^\s*RETURNING\b`,
	`^\s*WHEN\b`,
	`^\s*THEN\b`,
	`^\s*ELSE\b`,
	`^\s*END\b`,
	`^\s*LOOP\b`,
	`^\s*EXIT\b`,
	`^\s*FETCH\b`,
	`^\s*OPEN\b`,
	`^\s*CLOSE\b`,
	`^\s*RETURN\b`,
	`^\s*RAISE\b`,
	`^\s*EXCEPTION\b`,
	`^\s*PRAGMA\b`,
	`^\s*--`,          // line comment
	`^\s*/\*`,         // block comment start
	`^\s*\*`,          // block comment continuation
	`^\s*\(`,          // subquery or value list
	`^\s*\)`,          // closing paren
	`.*;\s*$`,         // ends with semicolon
	`^\s*,`,           // leading comma continuation
	`^[^a-zA-Z]*$`,    // symbols/numbers only
})

// Hard SQL tokens that disqualify a line from being prose when they lead it.
var proseDisqualifiers = []string{
	"SELECT", "FROM", "WHERE", "JOIN", "LEFT", "RIGHT", "INNER", "OUTER",
	"INSERT", "UPDATE", "DELETE", "CREATE", "ALTER", "DROP", "TRUNCATE",
	"ORDER BY", "GROUP BY", "HAVING", "UNION", "INTO", "VALUES", "SET",
	"BEGIN", "END", "DECLARE", "EXECUTE", "EXEC", "COMMIT", "ROLLBACK",
	"GRANT", "REVOKE", "CURSOR", "FETCH", "EXCEPTION", "RAISE", "LOOP",
	"VARCHAR", "NUMBER", "INTEGER", "SYSDATE", "NVL", "DECODE", "ROWNUM",
	"PROCEDURE", "FUNCTION", "TRIGGER", "PACKAGE", "VIEW", "INDEX",
	"PRIMARY KEY", "FOREIGN KEY", "CONSTRAINT", "NOT NULL", "DEFAULT",
	"AND", "OR", "ON", "AS", "IN", "IS", "NULL", "LIKE", "BETWEEN",
}

// SQL idioms that mark a line as code even when it reads like a sentence.
var sqlIdiomPatterns = compileAll([]string{
	`\s+(AND|OR)\s+\w+\s*(=|<|>|!=|<>|LIKE|IN|IS)`,
	`\bJOIN\b.*\bON\b`,
	`\b(COUNT|SUM|AVG|MAX|MIN)\s*\(`,
})

// English-sentence heuristics. A line matching any of these (and none of the
// SQL patterns above) terminates a plain-text block.
var prosePatterns = compileAll([]string{
	`^(This|That|The|Here|There|But|If|What|How|Why|Please|Note|See)\s+\w+\s+\w+`,
	`.*\s(is|are|was|were|has|have|had|will|would|could|should|can|may|must|shall)\s+(a|an|the|this|that|these|those)\s`,
	`^[A-Z][a-z]+\s+[a-z]+\s+[a-z]+\s+[a-z]+`, // 4+ word sentence shape
	`\.\s*$`,           // ends with a period, not a semicolon
	`:\s*$`,            // ends with a colon (heading/label)
	`^\d+\.\s+[A-Z]`,   // numbered list item
	`^[-*]\s+[A-Z]`,    // bullet list item
})

// PL/SQL block openers. A match switches the scanner into block mode where
// blank lines and semicolons no longer terminate.
var plsqlStarters = compileAll([]string{
	`^CREATE\s+(OR\s+REPLACE\s+)?(PROCEDURE|FUNCTION|PACKAGE|TRIGGER|TYPE)\b`,
	`^DECLARE\b`,
})

// Short identifier-like lines (column lists, parameter lists) that continue
// a block when indented or brief.
var identifierLine = regexp.MustCompile(`^[\w\s,\.\(\)\'\"_\-\*:=]+$`)

// Keywords counted (all occurrences) for the keyword_count complexity metric.
// This is a broader census than the detection patterns above.
var complexityKeywords = compileAll([]string{
	`\bSELECT\b`, `\bFROM\b`, `\bWHERE\b`, `\bJOIN\b`, `\bLEFT\b`, `\bRIGHT\b`,
	`\bINNER\b`, `\bOUTER\b`, `\bGROUP\s+BY\b`, `\bORDER\s+BY\b`, `\bHAVING\b`,
	`\bUNION\b`, `\bINTERSECT\b`, `\bMINUS\b`, `\bINSERT\b`, `\bUPDATE\b`,
	`\bDELETE\b`, `\bMERGE\b`, `\bCREATE\b`, `\bALTER\b`, `\bDROP\b`,
	`\bBEGIN\b`, `\bEND\b`, `\bIF\b`, `\bTHEN\b`, `\bELSE\b`, `\bELSIF\b`,
	`\bCASE\b`, `\bWHEN\b`, `\bLOOP\b`, `\bFOR\b`, `\bWHILE\b`, `\bCURSOR\b`,
	`\bFETCH\b`, `\bEXCEPTION\b`, `\bRAISE\b`, `\bCOMMIT\b`, `\bROLLBACK\b`,
	`\bSAVEPOINT\b`, `\bGRANT\b`, `\bREVOKE\b`, `\bAND\b`, `\bOR\b`, `\bNOT\b`,
	`\bIN\b`, `\bEXISTS\b`, `\bBETWEEN\b`, `\bLIKE\b`, `\bDISTINCT\b`,
	`\bALL\b`, `\bANY\b`, `\bSOME\b`,
})

// Clause patterns that introduce a table name, for tables_referenced.
var tableRefPatterns = compileAll([]string{
	`\bFROM\s+([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)`,
	`\bJOIN\s+([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)`,
	`\bINTO\s+([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)`,
	`\bUPDATE\s+([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)`,
	`\bTABLE\s+([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)`,
	`\bTRUNCATE\s+(?:TABLE\s+)?([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)?)`,
})

// compileAll compiles a pattern list case-insensitively.
func compileAll(patterns []string) []*regexp.Regexp {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return compiled
}
