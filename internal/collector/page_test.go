package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePageRESTShape(t *testing.T) {
	data := []byte(`{
		"id": "12345",
		"title": "Runbook",
		"space": {"key": "OPS", "name": "Operations"},
		"_links": {"webui": "/display/OPS/Runbook"},
		"body": {"storage": {"value": "<p>hello</p>"}},
		"version": {"number": 7, "when": "2023-06-10T08:30:00.000Z", "by": {"displayName": "Dana Ops"}},
		"history": {"createdDate": "2023-04-01T10:00:00.000Z"}
	}`)

	page, err := decodePage(data)
	require.NoError(t, err)

	assert.Equal(t, "12345", page.ID)
	assert.Equal(t, "Runbook", page.Title)
	assert.Equal(t, "OPS", page.SpaceKey)
	assert.Equal(t, "Operations", page.SpaceName)
	assert.Equal(t, "/display/OPS/Runbook", page.URL)
	assert.Equal(t, "<p>hello</p>", page.BodyHTML)
	assert.Equal(t, 7, page.Version)
	assert.Equal(t, "2023-04-01T10:00:00.000Z", page.CreatedDate)
	assert.Equal(t, "2023-06-10T08:30:00.000Z", page.LastModified)
	assert.Equal(t, "Dana Ops", page.LastEditor)
}

func TestDecodePageExportShape(t *testing.T) {
	data := []byte(`{
		"id": 98765,
		"title": "Queries",
		"space_key": "ENG",
		"space_name": "Engineering",
		"url": "https://wiki/pages/98765",
		"body": "<p>exported</p>",
		"created_date": "2022-01-15",
		"updated": "2022-02-20"
	}`)

	page, err := decodePage(data)
	require.NoError(t, err)

	assert.Equal(t, "98765", page.ID, "numeric ids are canonicalized to strings")
	assert.Equal(t, "ENG", page.SpaceKey)
	assert.Equal(t, "Engineering", page.SpaceName)
	assert.Equal(t, "<p>exported</p>", page.BodyHTML)
	assert.Equal(t, "2022-01-15", page.CreatedDate)
	assert.Equal(t, "2022-02-20", page.LastModified)
	assert.Equal(t, 0, page.Version)
}

func TestDecodePageMissingID(t *testing.T) {
	_, err := decodePage([]byte(`{"title": "orphan"}`))
	assert.Error(t, err)
}

func TestDecodePageNullBody(t *testing.T) {
	page, err := decodePage([]byte(`{"id": "1", "title": "empty", "body": null}`))
	require.NoError(t, err)
	assert.Equal(t, "", page.BodyHTML)
}

func TestDecodePageBadJSON(t *testing.T) {
	_, err := decodePage([]byte(`{not json`))
	assert.Error(t, err)
}
