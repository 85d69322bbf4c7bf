package collector

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SpaceSnapshot is one exported snapshot file: a space and its pages.
type SpaceSnapshot struct {
	SpaceKey  string
	SpaceName string
	File      string
	Pages     []PageRecord
}

// rawSnapshot covers both snapshot file shapes: an object with a space key
// and page list, or a bare page array.
type rawSnapshot struct {
	SpaceKey  string            `json:"space_key"`
	SpaceName string            `json:"space_name"`
	Pages     []json.RawMessage `json:"pages"`
}

// LoadSnapshots reads every *.json file in the directory, sorted by name so
// runs are reproducible. A file that cannot be read or parsed is logged and
// skipped; a single bad page inside a file is skipped and counted. Only a
// missing directory fails the load.
func LoadSnapshots(dir string, logger *slog.Logger) ([]SpaceSnapshot, int, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read snapshot dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var snapshots []SpaceSnapshot
	badPages := 0
	for _, name := range names {
		snapshot, bad, err := loadSnapshotFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("snapshot file skipped", "file", name, "error", err)
			continue
		}
		badPages += bad
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, badPages, nil
}

func loadSnapshotFile(path string) (SpaceSnapshot, int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SpaceSnapshot{}, 0, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var rawPages []json.RawMessage
	spaceKey := ""
	spaceName := ""

	var obj rawSnapshot
	if err := json.Unmarshal(data, &obj); err == nil && obj.Pages != nil {
		rawPages = obj.Pages
		spaceKey = obj.SpaceKey
		spaceName = obj.SpaceName
	} else if err := json.Unmarshal(data, &rawPages); err != nil {
		return SpaceSnapshot{}, 0, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	snapshot := SpaceSnapshot{
		SpaceKey:  spaceKey,
		SpaceName: spaceName,
		File:      path,
	}
	if snapshot.SpaceKey == "" {
		// Fall back to the file name: SPACE.json exports are the convention.
		base := filepath.Base(path)
		snapshot.SpaceKey = strings.TrimSuffix(base, filepath.Ext(base))
	}

	bad := 0
	for _, rawPage := range rawPages {
		page, err := decodePage(rawPage)
		if err != nil {
			bad++
			continue
		}
		if page.SpaceKey == "" {
			page.SpaceKey = snapshot.SpaceKey
		}
		if page.SpaceName == "" {
			page.SpaceName = snapshot.SpaceName
		}
		snapshot.Pages = append(snapshot.Pages, page)
	}
	return snapshot, bad, nil
}
