package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchSpacePagesPaginates(t *testing.T) {
	var requests []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		requests = append(requests, q.Get("start"))

		assert.Equal(t, "/rest/api/content", r.URL.Path)
		assert.Equal(t, "DBA", q.Get("spaceKey"))
		assert.Equal(t, "page", q.Get("type"))
		assert.Equal(t, "body.storage,version,space,history", q.Get("expand"))

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "svc-wiki", user)
		assert.Equal(t, "secret", pass)

		w.Header().Set("Content-Type", "application/json")
		// Two full results on the first request, one short page after.
		if q.Get("start") == "0" {
			fmt.Fprint(w, `{"results": [
				{"id": "10", "title": "A", "space": {"key": "DBA", "name": "Databases"},
				 "version": {"number": 3, "when": "2024-01-05T12:00:00.000Z", "by": {"displayName": "Sam DBA"}},
				 "body": {"storage": {"value": "<p>a</p>"}}},
				{"id": "11", "title": "B", "body": {"storage": {"value": "<p>b</p>"}}}
			], "size": 2}`)
			return
		}
		fmt.Fprint(w, `{"results": [
			{"id": "12", "title": "C", "body": {"storage": {"value": "<p>c</p>"}}}
		], "size": 1}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "svc-wiki", "secret", 2, 100)

	pages, bad, err := c.FetchSpacePages(context.Background(), "DBA")
	require.NoError(t, err)
	assert.Equal(t, 0, bad)
	assert.Equal(t, []string{"0", "2"}, requests)

	require.Len(t, pages, 3)
	assert.Equal(t, "10", pages[0].ID)
	assert.Equal(t, "Databases", pages[0].SpaceName)
	assert.Equal(t, "2024-01-05T12:00:00.000Z", pages[0].LastModified)
	assert.Equal(t, "Sam DBA", pages[0].LastEditor)
	assert.Equal(t, "DBA", pages[1].SpaceKey, "space key filled in when the API omits it")
	assert.Equal(t, "<p>c</p>", pages[2].BodyHTML)
}

func TestFetchSpacePagesBearerAuth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer pat-token", r.Header.Get("Authorization"))
		fmt.Fprint(w, `{"results": [], "size": 0}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "pat-token", 25, 100)

	pages, bad, err := c.FetchSpacePages(context.Background(), "DBA")
	require.NoError(t, err)
	assert.Equal(t, 0, bad)
	assert.Empty(t, pages)
}

func TestFetchSpacePagesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "space does not exist", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", 25, 100)

	_, _, err := c.FetchSpacePages(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "space does not exist")
}

func TestFetchSpacePagesBadPageSkipped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results": [
			{"title": "no id here"},
			{"id": "20", "title": "Good", "body": "<p>ok</p>"}
		], "size": 2}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", "", 25, 100)

	pages, bad, err := c.FetchSpacePages(context.Background(), "DBA")
	require.NoError(t, err)
	assert.Equal(t, 1, bad)
	require.Len(t, pages, 1)
	assert.Equal(t, "20", pages[0].ID)
}
