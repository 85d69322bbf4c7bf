package storage

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// Database handles all database operations.
type Database struct {
	db *sql.DB
	mu sync.RWMutex

	// globalDedup suppresses a script everywhere after its first page.
	// Default keeps one row per page so provenance is not lost.
	globalDedup bool
}

// NewDatabase creates a new database connection.
func NewDatabase(path string) (*Database, error) {
	// SQLite connection with optimizations
	dsn := fmt.Sprintf("%s?_journal=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", path)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// SQLite only supports one writer
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	return &Database{db: db}, nil
}

// SetGlobalDedup switches cross-page deduplication on or off.
func (d *Database) SetGlobalDedup(enabled bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.globalDedup = enabled
}

// Initialize creates tables and views.
func (d *Database) Initialize() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, err := d.db.Exec(Schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	if _, err := d.db.Exec(ViewsSchema); err != nil {
		return fmt.Errorf("failed to create views: %w", err)
	}

	return nil
}

// Reset clears all extracted data, including the cross-run hash index, so
// the next extraction rebuilds the store from scratch.
func (d *Database) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		DELETE FROM sql_scripts;
		DELETE FROM fragment_hashes;
		DELETE FROM extract_runs;
	`)
	if err != nil {
		return fmt.Errorf("failed to reset store: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (d *Database) Close() error {
	return d.db.Close()
}

// --- Script Operations ---

// InsertScripts persists a page's scripts in one transaction. Scripts whose
// (page, digest) pair is already on record are skipped, which is what makes
// re-extraction idempotent. Returns how many were inserted and how many were
// skipped as duplicates.
func (d *Database) InsertScripts(scripts []*Script) (inserted, skipped int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	tx, err := d.db.Begin()
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	markStmt, err := tx.Prepare(`
		INSERT OR IGNORE INTO fragment_hashes (page_id, sql_hash) VALUES (?, ?)
	`)
	if err != nil {
		return 0, 0, err
	}
	defer markStmt.Close()

	insertStmt, err := tx.Prepare(`
		INSERT INTO sql_scripts (page_id, page_title, space_key, space_name,
			page_url, sql_hash, sql_code, sql_language, sql_title,
			sql_description, sql_source, line_count, char_count, nesting_depth,
			keyword_count, sql_type, tables_referenced, schemas_referenced,
			page_version, created_date, last_modified, last_editor)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return 0, 0, err
	}
	defer insertStmt.Close()

	for _, script := range scripts {
		if d.globalDedup {
			var exists int
			err := tx.QueryRow(`SELECT 1 FROM sql_scripts WHERE sql_hash = ? LIMIT 1`, script.SQLHash).Scan(&exists)
			if err == nil {
				skipped++
				continue
			}
			if err != sql.ErrNoRows {
				return 0, 0, err
			}
		}

		result, err := markStmt.Exec(script.PageID, script.SQLHash)
		if err != nil {
			return 0, 0, err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, 0, err
		}
		if affected == 0 {
			skipped++
			continue
		}

		if _, err := insertStmt.Exec(
			script.PageID, script.PageTitle, script.SpaceKey, script.SpaceName,
			script.PageURL, script.SQLHash, script.SQLCode, script.Language,
			script.Title, script.Description, script.Source, script.LineCount,
			script.CharCount, script.NestingDepth, script.KeywordCount,
			script.SQLType, script.TablesReferenced, script.SchemasReferenced,
			script.PageVersion, script.CreatedDate, script.LastModified,
			script.LastEditor,
		); err != nil {
			return 0, 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return inserted, skipped, nil
}

// GetScript retrieves a single script by ID.
func (d *Database) GetScript(id int64) (*Script, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var s Script
	err := d.db.QueryRow(`
		SELECT id, page_id, page_title, space_key, space_name, page_url,
			sql_hash, sql_code, sql_language, sql_title, sql_description,
			sql_source, line_count, char_count, nesting_depth, keyword_count,
			sql_type, tables_referenced, schemas_referenced, page_version,
			created_date, last_modified, last_editor, created_at
		FROM sql_scripts WHERE id = ?
	`, id).Scan(
		&s.ID, &s.PageID, &s.PageTitle, &s.SpaceKey, &s.SpaceName, &s.PageURL,
		&s.SQLHash, &s.SQLCode, &s.Language, &s.Title, &s.Description,
		&s.Source, &s.LineCount, &s.CharCount, &s.NestingDepth,
		&s.KeywordCount, &s.SQLType, &s.TablesReferenced, &s.SchemasReferenced,
		&s.PageVersion, &s.CreatedDate, &s.LastModified, &s.LastEditor,
		&s.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// --- Run Operations ---

// StartRun records the beginning of an extraction run and returns its ID.
func (d *Database) StartRun(inputSource string) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	result, err := d.db.Exec(`
		INSERT INTO extract_runs (input_source) VALUES (?)
	`, inputSource)
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// FinishRun stores the final counters of a run.
func (d *Database) FinishRun(run *Run) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, err := d.db.Exec(`
		UPDATE extract_runs
		SET completed_at = CURRENT_TIMESTAMP, pages_scanned = ?, pages_with_sql = ?,
			fragments_found = ?, fragments_inserted = ?, duplicates_skipped = ?, page_errors = ?
		WHERE id = ?
	`, run.PagesScanned, run.PagesWithSQL, run.FragmentsFound,
		run.FragmentsInserted, run.DuplicatesSkipped, run.PageErrors, run.ID)
	return err
}

// GetLastRun retrieves the most recent extraction run, or nil.
func (d *Database) GetLastRun() (*Run, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var run Run
	err := d.db.QueryRow(`
		SELECT id, started_at, completed_at, input_source, pages_scanned,
			pages_with_sql, fragments_found, fragments_inserted,
			duplicates_skipped, page_errors
		FROM extract_runs
		ORDER BY started_at DESC
		LIMIT 1
	`).Scan(
		&run.ID, &run.StartedAt, &run.CompletedAt, &run.InputSource,
		&run.PagesScanned, &run.PagesWithSQL, &run.FragmentsFound,
		&run.FragmentsInserted, &run.DuplicatesSkipped, &run.PageErrors,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}
