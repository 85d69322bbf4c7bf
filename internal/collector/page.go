// Package collector acquires wiki pages for extraction, either from exported
// JSON snapshots on disk or live over the Confluence REST API. Both paths
// produce the same PageRecord shape so the pipeline never knows the
// difference.
package collector

import (
	"encoding/json"
	"fmt"
)

// PageRecord is one wiki page ready for extraction.
type PageRecord struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	SpaceKey     string `json:"space_key"`
	SpaceName    string `json:"space_name"`
	URL          string `json:"url"`
	BodyHTML     string `json:"body"`
	Version      int    `json:"version"`
	CreatedDate  string `json:"created_date"`
	LastModified string `json:"last_modified"`
	LastEditor   string `json:"last_editor"`
}

// rawPage mirrors the shapes pages arrive in. Exports and the REST API
// disagree about where the body lives, so every known spelling is accepted
// and canonicalized in decode.
type rawPage struct {
	ID        flexID          `json:"id"`
	Title     string          `json:"title"`
	SpaceKey  string          `json:"space_key"`
	SpaceName string          `json:"space_name"`
	Space     *rawSpace       `json:"space"`
	URL       string          `json:"url"`
	Links     *rawLinks       `json:"_links"`
	Body      json.RawMessage `json:"body"`
	Version   *rawVersion     `json:"version"`
	History   *rawHistory     `json:"history"`
	Created   string          `json:"created_date"`
	Updated   string          `json:"updated"`
	Editor    string          `json:"last_editor"`
}

type rawSpace struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

type rawLinks struct {
	WebUI string `json:"webui"`
}

type rawVersion struct {
	Number int      `json:"number"`
	When   string   `json:"when"`
	By     *rawUser `json:"by"`
}

type rawUser struct {
	DisplayName string `json:"displayName"`
}

type rawHistory struct {
	CreatedDate string `json:"createdDate"`
}

// flexID accepts page ids spelled as JSON strings or numbers. The REST API
// sends strings, some exports send numbers.
type flexID string

func (f *flexID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("unrecognized id shape: %s", string(data))
	}
	*f = flexID(n.String())
	return nil
}

// rawBody covers the nested REST body shape: {"storage": {"value": html}}.
type rawBody struct {
	Storage struct {
		Value string `json:"value"`
	} `json:"storage"`
}

// decodePage canonicalizes one raw page into a PageRecord.
func decodePage(data []byte) (PageRecord, error) {
	var raw rawPage
	if err := json.Unmarshal(data, &raw); err != nil {
		return PageRecord{}, fmt.Errorf("failed to decode page: %w", err)
	}
	return canonicalize(raw)
}

func canonicalize(raw rawPage) (PageRecord, error) {
	page := PageRecord{
		ID:           string(raw.ID),
		Title:        raw.Title,
		SpaceKey:     raw.SpaceKey,
		SpaceName:    raw.SpaceName,
		URL:          raw.URL,
		CreatedDate:  raw.Created,
		LastModified: raw.Updated,
		LastEditor:   raw.Editor,
	}

	if page.ID == "" {
		return PageRecord{}, fmt.Errorf("page has no id")
	}
	if raw.Space != nil {
		if page.SpaceKey == "" {
			page.SpaceKey = raw.Space.Key
		}
		if page.SpaceName == "" {
			page.SpaceName = raw.Space.Name
		}
	}
	if page.URL == "" && raw.Links != nil {
		page.URL = raw.Links.WebUI
	}
	if raw.Version != nil {
		page.Version = raw.Version.Number
		if page.LastModified == "" {
			page.LastModified = raw.Version.When
		}
		if page.LastEditor == "" && raw.Version.By != nil {
			page.LastEditor = raw.Version.By.DisplayName
		}
	}
	if page.CreatedDate == "" && raw.History != nil {
		page.CreatedDate = raw.History.CreatedDate
	}

	body, err := decodeBody(raw.Body)
	if err != nil {
		return PageRecord{}, fmt.Errorf("page %s: %w", page.ID, err)
	}
	page.BodyHTML = body

	return page, nil
}

// decodeBody accepts both body shapes: a bare HTML string, or the nested
// storage object the REST API returns.
func decodeBody(data json.RawMessage) (string, error) {
	if len(data) == 0 || string(data) == "null" {
		return "", nil
	}

	var plain string
	if err := json.Unmarshal(data, &plain); err == nil {
		return plain, nil
	}

	var nested rawBody
	if err := json.Unmarshal(data, &nested); err != nil {
		return "", fmt.Errorf("unrecognized body shape: %w", err)
	}
	return nested.Storage.Value, nil
}
