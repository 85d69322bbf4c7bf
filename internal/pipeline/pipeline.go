// Package pipeline runs the end-to-end extraction: pages in, deduplicated
// and analyzed SQL scripts in the store.
package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/sql-miner/sqlminer/internal/collector"
	"github.com/sql-miner/sqlminer/internal/dedup"
	"github.com/sql-miner/sqlminer/internal/recognizer"
	"github.com/sql-miner/sqlminer/internal/storage"
)

// ErrNoPages means the input yielded nothing to scan.
var ErrNoPages = errors.New("no pages to scan")

// advisoryThreshold flags pages where the plain-text scanner found
// suspiciously many fragments, which usually means prose got through.
const advisoryThreshold = 5

// Options tune one extraction run.
type Options struct {
	// MinLines drops fragments shorter than this many lines.
	MinLines int

	// SummaryOnly scans and counts without writing scripts to the store.
	SummaryOnly bool
}

// Summary holds the counters of one extraction run.
type Summary struct {
	InputSource       string
	PagesScanned      int
	PagesWithSQL      int
	FragmentsFound    int
	FragmentsInserted int
	DuplicatesSkipped int
	PageErrors        int
	Elapsed           time.Duration
}

// Pipeline extracts SQL from page collections into the store.
type Pipeline struct {
	db     *storage.Database
	logger *slog.Logger
	opts   Options
}

// New creates a pipeline. A nil logger discards all output.
func New(db *storage.Database, logger *slog.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Pipeline{db: db, logger: logger, opts: opts}
}

// RunSnapshots extracts from exported snapshot files, one space at a time.
// Each space's scripts are committed together, so a crash between spaces
// loses at most the space in flight.
func (p *Pipeline) RunSnapshots(snapshots []collector.SpaceSnapshot, inputSource string) (*Summary, error) {
	total := 0
	for _, snapshot := range snapshots {
		total += len(snapshot.Pages)
	}
	if total == 0 {
		return nil, ErrNoPages
	}

	summary := &Summary{InputSource: inputSource}
	started := time.Now()

	runID := int64(0)
	if !p.opts.SummaryOnly {
		id, err := p.db.StartRun(inputSource)
		if err != nil {
			return nil, fmt.Errorf("failed to record run: %w", err)
		}
		runID = id
	}

	for _, snapshot := range snapshots {
		p.logger.Info("scanning space",
			"space", snapshot.SpaceKey, "pages", len(snapshot.Pages))
		p.processPages(snapshot.Pages, summary)
	}

	summary.Elapsed = time.Since(started)

	if !p.opts.SummaryOnly {
		if err := p.db.FinishRun(summary.toRun(runID)); err != nil {
			return nil, fmt.Errorf("failed to finalize run: %w", err)
		}
	}

	p.logger.Info("extraction complete",
		"pages", summary.PagesScanned,
		"pages_with_sql", summary.PagesWithSQL,
		"found", summary.FragmentsFound,
		"inserted", summary.FragmentsInserted,
		"duplicates", summary.DuplicatesSkipped,
		"errors", summary.PageErrors,
		"elapsed", summary.Elapsed.Round(time.Millisecond))

	return summary, nil
}

// processPages scans a batch of pages and persists their scripts in one
// transaction per page collection.
func (p *Pipeline) processPages(pages []collector.PageRecord, summary *Summary) {
	var scripts []*storage.Script

	for _, page := range pages {
		summary.PagesScanned++

		pageScripts, err := p.extractPage(page)
		if err != nil {
			summary.PageErrors++
			p.logger.Warn("page failed", "page_id", page.ID, "title", page.Title, "error", err)
			continue
		}
		if len(pageScripts) == 0 {
			continue
		}

		summary.PagesWithSQL++
		summary.FragmentsFound += len(pageScripts)
		scripts = append(scripts, pageScripts...)
	}

	if p.opts.SummaryOnly || len(scripts) == 0 {
		return
	}

	inserted, skipped, err := p.db.InsertScripts(scripts)
	if err != nil {
		summary.PageErrors++
		p.logger.Error("failed to persist scripts", "count", len(scripts), "error", err)
		return
	}
	summary.FragmentsInserted += inserted
	summary.DuplicatesSkipped += skipped
}

// extractPage runs the recognizer over one page. A panic anywhere in parsing
// or scanning is contained here so one malformed page cannot abort the run.
func (p *Pipeline) extractPage(page collector.PageRecord) (scripts []*storage.Script, err error) {
	defer func() {
		if r := recover(); r != nil {
			scripts = nil
			err = fmt.Errorf("panic while scanning page: %v", r)
		}
	}()

	fragments := recognizer.ExtractAll(page.BodyHTML)

	scanned := 0
	for _, fragment := range fragments {
		lineCount := strings.Count(fragment.SQL, "\n") + 1
		if p.opts.MinLines > 0 && lineCount < p.opts.MinLines {
			continue
		}
		if fragment.Source == recognizer.SourcePlainTextScan {
			scanned++
		}
		scripts = append(scripts, buildScript(page, fragment, lineCount))
	}

	if scanned > advisoryThreshold {
		p.logger.Warn("many plain-text fragments on one page, review for prose leakage",
			"page_id", page.ID, "title", page.Title, "count", scanned)
	}

	return scripts, nil
}

// buildScript assembles the storage row: identity digest, provenance and the
// precomputed analytics columns.
func buildScript(page collector.PageRecord, fragment recognizer.Fragment, lineCount int) *storage.Script {
	metrics := recognizer.ComputeMetrics(fragment.SQL)

	return &storage.Script{
		PageID:    page.ID,
		PageTitle: page.Title,
		SpaceKey:  page.SpaceKey,
		SpaceName: page.SpaceName,
		PageURL:   page.URL,

		SQLHash:     dedup.Hash(fragment.SQL),
		SQLCode:     fragment.SQL,
		Language:    fragment.Language,
		Title:       fragment.Title,
		Description: fragment.Description,
		Source:      fragment.Source,

		LineCount: lineCount,
		CharCount: len(fragment.SQL),

		NestingDepth:      metrics.NestingDepth,
		KeywordCount:      metrics.KeywordCount,
		SQLType:           metrics.SQLType,
		TablesReferenced:  strings.Join(metrics.Tables, ","),
		SchemasReferenced: strings.Join(metrics.Schemas, ","),

		PageVersion:  page.Version,
		CreatedDate:  page.CreatedDate,
		LastModified: page.LastModified,
		LastEditor:   page.LastEditor,
	}
}

func (s *Summary) toRun(id int64) *storage.Run {
	return &storage.Run{
		ID:                id,
		InputSource:       s.InputSource,
		PagesScanned:      s.PagesScanned,
		PagesWithSQL:      s.PagesWithSQL,
		FragmentsFound:    s.FragmentsFound,
		FragmentsInserted: s.FragmentsInserted,
		DuplicatesSkipped: s.DuplicatesSkipped,
		PageErrors:        s.PageErrors,
	}
}
