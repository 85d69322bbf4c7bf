package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-miner/sqlminer/internal/collector"
	"github.com/sql-miner/sqlminer/internal/storage"
)

const sqlMacroPage = `<h2>User report</h2>` +
	`<ac:structured-macro ac:name="code">` +
	`<ac:parameter ac:name="language">sql</ac:parameter>` +
	`<ac:plain-text-body><![CDATA[SELECT id, name FROM users WHERE active = 1;]]></ac:plain-text-body>` +
	`</ac:structured-macro>`

const multiLinePage = `<ac:structured-macro ac:name="code">` +
	`<ac:parameter ac:name="language">sql</ac:parameter>` +
	`<ac:plain-text-body><![CDATA[SELECT id, total` + "\n" + `FROM orders WHERE paid = 1;]]></ac:plain-text-body>` +
	`</ac:structured-macro>`

func newTestDB(t *testing.T) *storage.Database {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })
	return db
}

func snapshotWith(pages ...collector.PageRecord) []collector.SpaceSnapshot {
	return []collector.SpaceSnapshot{{SpaceKey: "ENG", Pages: pages}}
}

func TestRunSnapshotsExtractsAndPersists(t *testing.T) {
	db := newTestDB(t)
	p := New(db, nil, Options{})

	summary, err := p.RunSnapshots(snapshotWith(
		collector.PageRecord{
			ID: "1", Title: "Queries", SpaceKey: "ENG", SpaceName: "Engineering",
			BodyHTML: sqlMacroPage, LastModified: "2024-05-01T09:00:00Z", LastEditor: "Dana Ops",
		},
		collector.PageRecord{ID: "2", Title: "Prose", SpaceKey: "ENG", BodyHTML: "<p>No code on this page at all.</p>"},
	), "snapshots")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.PagesScanned)
	assert.Equal(t, 1, summary.PagesWithSQL)
	assert.Equal(t, 1, summary.FragmentsFound)
	assert.Equal(t, 1, summary.FragmentsInserted)
	assert.Equal(t, 0, summary.DuplicatesSkipped)
	assert.Equal(t, 0, summary.PageErrors)

	total, err := db.CountScripts(storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	scripts, err := db.ListScripts(storage.Filter{})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	s := scripts[0]
	assert.Equal(t, "1", s.PageID)
	assert.Equal(t, "code-macro-labeled", s.Source)
	assert.Equal(t, "SELECT", s.SQLType)
	assert.Equal(t, "USERS", s.TablesReferenced)
	assert.Equal(t, "Engineering", s.SpaceName)
	assert.Equal(t, "2024-05-01T09:00:00Z", s.LastModified)
	assert.Equal(t, "Dana Ops", s.LastEditor)

	run, err := db.GetLastRun()
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "snapshots", run.InputSource)
	assert.Equal(t, 2, run.PagesScanned)
	assert.Equal(t, 1, run.FragmentsInserted)
	require.NotNil(t, run.CompletedAt)
}

func TestRunSnapshotsIdempotentRerun(t *testing.T) {
	db := newTestDB(t)
	p := New(db, nil, Options{})
	pages := snapshotWith(collector.PageRecord{ID: "1", Title: "Queries", SpaceKey: "ENG", BodyHTML: sqlMacroPage})

	_, err := p.RunSnapshots(pages, "snapshots")
	require.NoError(t, err)

	summary, err := p.RunSnapshots(pages, "snapshots")
	require.NoError(t, err)
	assert.Equal(t, 1, summary.FragmentsFound)
	assert.Equal(t, 0, summary.FragmentsInserted)
	assert.Equal(t, 1, summary.DuplicatesSkipped)

	total, err := db.CountScripts(storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestRunSnapshotsGlobalDedupKeepsLabeledProvenance(t *testing.T) {
	db := newTestDB(t)
	db.SetGlobalDedup(true)
	p := New(db, nil, Options{})

	// Page 2 repeats the labeled macro's statement as plain body text.
	echoPage := "<p>SELECT id, name FROM users WHERE active = 1;</p>"

	summary, err := p.RunSnapshots(snapshotWith(
		collector.PageRecord{ID: "1", Title: "Labeled", SpaceKey: "ENG", BodyHTML: sqlMacroPage},
		collector.PageRecord{ID: "2", Title: "Echoed", SpaceKey: "ENG", BodyHTML: echoPage},
	), "snapshots")
	require.NoError(t, err)

	assert.Equal(t, 2, summary.FragmentsFound)
	assert.Equal(t, 1, summary.FragmentsInserted)
	assert.Equal(t, 1, summary.DuplicatesSkipped)

	scripts, err := db.ListScripts(storage.Filter{})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, "1", scripts[0].PageID)
	assert.Equal(t, "code-macro-labeled", scripts[0].Source)
}

func TestRunSnapshotsMinLines(t *testing.T) {
	db := newTestDB(t)
	p := New(db, nil, Options{MinLines: 2})

	summary, err := p.RunSnapshots(snapshotWith(
		collector.PageRecord{ID: "1", Title: "Short", SpaceKey: "ENG", BodyHTML: sqlMacroPage},
		collector.PageRecord{ID: "2", Title: "Long", SpaceKey: "ENG", BodyHTML: multiLinePage},
	), "snapshots")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FragmentsFound, "one-liners filtered out")
	assert.Equal(t, 1, summary.FragmentsInserted)

	scripts, err := db.ListScripts(storage.Filter{})
	require.NoError(t, err)
	require.Len(t, scripts, 1)
	assert.Equal(t, 2, scripts[0].LineCount)
}

func TestRunSnapshotsSummaryOnly(t *testing.T) {
	db := newTestDB(t)
	p := New(db, nil, Options{SummaryOnly: true})

	summary, err := p.RunSnapshots(snapshotWith(
		collector.PageRecord{ID: "1", Title: "Queries", SpaceKey: "ENG", BodyHTML: sqlMacroPage},
	), "snapshots")
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FragmentsFound)
	assert.Equal(t, 0, summary.FragmentsInserted)

	total, err := db.CountScripts(storage.Filter{})
	require.NoError(t, err)
	assert.Equal(t, 0, total, "summary-only writes nothing")

	run, err := db.GetLastRun()
	require.NoError(t, err)
	assert.Nil(t, run, "summary-only records no run")
}

func TestRunSnapshotsNoPages(t *testing.T) {
	db := newTestDB(t)
	p := New(db, nil, Options{})

	_, err := p.RunSnapshots(nil, "snapshots")
	assert.ErrorIs(t, err, ErrNoPages)

	_, err = p.RunSnapshots([]collector.SpaceSnapshot{{SpaceKey: "EMPTY"}}, "snapshots")
	assert.ErrorIs(t, err, ErrNoPages)
}
