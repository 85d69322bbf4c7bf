package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sql-miner/sqlminer/internal/dedup"
	"github.com/sql-miner/sqlminer/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *storage.Database) {
	t.Helper()
	db, err := storage.NewDatabase(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.Initialize())
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(db, logger, ":0"), db
}

func seedScripts(t *testing.T, db *storage.Database) {
	t.Helper()
	scripts := []*storage.Script{
		{
			PageID: "p1", PageTitle: "Reports", SpaceKey: "ENG",
			SQLHash: dedup.Hash("SELECT 1 FROM dual"), SQLCode: "SELECT 1 FROM dual",
			Language: "sql", Source: "code-macro-labeled", SQLType: "SELECT",
			LineCount: 1, CharCount: 18,
		},
		{
			PageID: "p2", PageTitle: "Cleanup", SpaceKey: "OPS",
			SQLHash: dedup.Hash("DELETE FROM logs"), SQLCode: "DELETE FROM logs",
			Language: "sql", Source: "plain-text-scan", SQLType: "DELETE",
			LineCount: 1, CharCount: 16,
		},
	}
	_, _, err := db.InsertScripts(scripts)
	require.NoError(t, err)
}

func doGet(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doGet(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListScripts(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/scripts")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Scripts    []storage.Script `json:"scripts"`
		Total      int              `json:"total"`
		Page       int              `json:"page"`
		PageSize   int              `json:"page_size"`
		TotalPages int              `json:"total_pages"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, storage.PageSize, page.PageSize)
	assert.Equal(t, 1, page.TotalPages)
	assert.Len(t, page.Scripts, 2)
}

func TestListScriptsFiltered(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/scripts?space=OPS&type=DELETE")
	require.Equal(t, http.StatusOK, rec.Code)

	var page struct {
		Scripts []storage.Script `json:"scripts"`
		Total   int              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "DELETE FROM logs", page.Scripts[0].SQLCode)
}

func TestListScriptsInvalidPage(t *testing.T) {
	s, _ := newTestServer(t)

	assert.Equal(t, http.StatusBadRequest, doGet(t, s, "/api/scripts?page=abc").Code)
	assert.Equal(t, http.StatusBadRequest, doGet(t, s, "/api/scripts?page=0").Code)
}

func TestListScriptsEmptyIsArray(t *testing.T) {
	s, _ := newTestServer(t)

	rec := doGet(t, s, "/api/scripts")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"scripts":[]`)
}

func TestGetScript(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/scripts/1")
	require.Equal(t, http.StatusOK, rec.Code)

	var script storage.Script
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &script))
	assert.Equal(t, "SELECT 1 FROM dual", script.SQLCode)

	assert.Equal(t, http.StatusNotFound, doGet(t, s, "/api/scripts/999").Code)
	assert.Equal(t, http.StatusBadRequest, doGet(t, s, "/api/scripts/abc").Code)
}

func TestTree(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/tree")
	require.Equal(t, http.StatusOK, rec.Code)

	var tree []storage.SpaceGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	require.Len(t, tree, 2)
	assert.Equal(t, "ENG", tree[0].SpaceKey)
}

func TestTreeFiltered(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/tree?space=OPS")
	require.Equal(t, http.StatusOK, rec.Code)

	var tree []storage.SpaceGroup
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "OPS", tree[0].SpaceKey)
}

func TestInsights(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/insights")
	require.Equal(t, http.StatusOK, rec.Code)

	var insights storage.Insights
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &insights))
	assert.Equal(t, 2, insights.TotalScripts)
	assert.Equal(t, 2, insights.TotalSpaces)
}

func TestFilters(t *testing.T) {
	s, db := newTestServer(t)
	seedScripts(t, db)

	rec := doGet(t, s, "/api/filters")
	require.Equal(t, http.StatusOK, rec.Code)

	var filters map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &filters))
	assert.Equal(t, []string{"ENG", "OPS"}, filters["spaces"])
	assert.Len(t, filters["sizes"], 6)
	assert.Len(t, filters["nestings"], 5)
}

func TestUnknownRoute(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, doGet(t, s, "/api/nope").Code)
}
