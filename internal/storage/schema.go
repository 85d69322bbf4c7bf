package storage

// Schema contains SQL statements to create database tables.
const Schema = `
-- Scripts table: one row per persisted SQL fragment
CREATE TABLE IF NOT EXISTS sql_scripts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id TEXT NOT NULL,
    page_title TEXT,
    space_key TEXT,
    space_name TEXT,
    page_url TEXT,
    sql_hash TEXT NOT NULL,
    sql_code TEXT NOT NULL,
    sql_language TEXT,
    sql_title TEXT,
    sql_description TEXT,
    sql_source TEXT NOT NULL,
    line_count INTEGER DEFAULT 0,
    char_count INTEGER DEFAULT 0,
    nesting_depth INTEGER DEFAULT 0,
    keyword_count INTEGER DEFAULT 0,
    sql_type TEXT,
    tables_referenced TEXT,
    schemas_referenced TEXT,
    page_version INTEGER DEFAULT 0,
    created_date TEXT,
    last_modified TEXT,
    last_editor TEXT,
    created_at DATETIME DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scripts_hash ON sql_scripts(sql_hash);
CREATE INDEX IF NOT EXISTS idx_scripts_space ON sql_scripts(space_key);
CREATE INDEX IF NOT EXISTS idx_scripts_page ON sql_scripts(page_id);
CREATE INDEX IF NOT EXISTS idx_scripts_type ON sql_scripts(sql_type);
CREATE INDEX IF NOT EXISTS idx_scripts_source ON sql_scripts(sql_source);
CREATE INDEX IF NOT EXISTS idx_scripts_line_count ON sql_scripts(line_count);
CREATE INDEX IF NOT EXISTS idx_scripts_nesting ON sql_scripts(nesting_depth);

-- Fragment hashes table: every (page, digest) pair ever persisted. Makes
-- re-running extraction over the same pages a no-op.
CREATE TABLE IF NOT EXISTS fragment_hashes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    page_id TEXT NOT NULL,
    sql_hash TEXT NOT NULL,
    first_seen DATETIME DEFAULT CURRENT_TIMESTAMP,
    UNIQUE(page_id, sql_hash)
);

CREATE INDEX IF NOT EXISTS idx_fragment_hashes_hash ON fragment_hashes(sql_hash);

-- Extract runs table: one row per extraction run for auditing
CREATE TABLE IF NOT EXISTS extract_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at DATETIME DEFAULT CURRENT_TIMESTAMP,
    completed_at DATETIME,
    input_source TEXT,
    pages_scanned INTEGER DEFAULT 0,
    pages_with_sql INTEGER DEFAULT 0,
    fragments_found INTEGER DEFAULT 0,
    fragments_inserted INTEGER DEFAULT 0,
    duplicates_skipped INTEGER DEFAULT 0,
    page_errors INTEGER DEFAULT 0
);
`

// ViewsSchema contains SQL for useful views.
const ViewsSchema = `
-- View: per-space rollup of the extracted corpus
CREATE VIEW IF NOT EXISTS sql_summary AS
SELECT
    space_key,
    space_name,
    COUNT(*) as script_count,
    COUNT(DISTINCT page_id) as pages_with_sql,
    SUM(line_count) as total_lines,
    ROUND(AVG(line_count), 1) as avg_lines,
    MAX(line_count) as max_lines,
    COUNT(DISTINCT sql_type) as type_count
FROM sql_scripts
GROUP BY space_key, space_name
ORDER BY script_count DESC;

-- View: statement type distribution
CREATE VIEW IF NOT EXISTS v_type_distribution AS
SELECT
    sql_type,
    COUNT(*) as count,
    ROUND(AVG(line_count), 1) as avg_lines,
    ROUND(AVG(nesting_depth), 1) as avg_nesting
FROM sql_scripts
GROUP BY sql_type
ORDER BY count DESC;

-- View: provenance distribution
CREATE VIEW IF NOT EXISTS v_source_distribution AS
SELECT
    sql_source,
    COUNT(*) as count
FROM sql_scripts
GROUP BY sql_source
ORDER BY count DESC;

-- View: pages carrying the most SQL
CREATE VIEW IF NOT EXISTS v_top_pages AS
SELECT
    page_id,
    page_title,
    space_key,
    COUNT(*) as script_count,
    SUM(line_count) as total_lines
FROM sql_scripts
GROUP BY page_id
ORDER BY script_count DESC;
`

// sizeBucketCase maps line_count to its display bucket. The same ranges back
// the size filter, so the UI facets and the WHERE clauses can never drift.
const sizeBucketCase = `CASE
    WHEN line_count <= 5 THEN '1-5'
    WHEN line_count <= 20 THEN '6-20'
    WHEN line_count <= 50 THEN '21-50'
    WHEN line_count <= 100 THEN '51-100'
    WHEN line_count <= 500 THEN '101-500'
    ELSE '500+'
END`

// nestingBucketCase maps nesting_depth to its display bucket.
const nestingBucketCase = `CASE
    WHEN nesting_depth = 0 THEN '0'
    WHEN nesting_depth <= 2 THEN '1-2'
    WHEN nesting_depth <= 5 THEN '3-5'
    WHEN nesting_depth <= 10 THEN '6-10'
    ELSE '10+'
END`
