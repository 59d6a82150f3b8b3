// SPDX-License-Identifier: Apache-2.0

package structure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// State is a step of the analysis state machine:
// unloaded → loaded → items_extracted → enriched → done, or unloaded → failed.
type State string

const (
	StateUnloaded       State = "unloaded"
	StateLoaded         State = "loaded"
	StateItemsExtracted State = "items_extracted"
	StateEnriched       State = "enriched"
	StateDone           State = "done"
	StateFailed         State = "failed"
)

// Analyzer orchestrates item extraction and specification location.
type Analyzer struct {
	extractor *ItemExtractor
	locator   *SpecLocator
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures an Analyzer.
type Option func(*Analyzer)

func WithItemExtractor(e *ItemExtractor) Option {
	return func(a *Analyzer) { a.extractor = e }
}

func WithSpecLocator(l *SpecLocator) Option {
	return func(a *Analyzer) { a.locator = l }
}

// WithLogger sets the logger of the analyzer and of its locator.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(a *Analyzer) { a.now = now }
}

// NewAnalyzer creates an Analyzer with default extractor and locator.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		extractor: NewItemExtractor(DefaultMaxScanPages),
		locator:   NewSpecLocator(),
		logger:    discardLogger(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = discardLogger()
	}
	if a.locator.logger == nil || a.locator.logger == discard {
		a.locator.logger = a.logger
	}
	return a
}

// AnalysisResult is the output of one analyzer run.
type AnalysisResult struct {
	Structure   *EditalStructure
	State       State
	Diagnostics []string
}

// NoItems reports the soft failure where no item row was recognised.
func (r *AnalysisResult) NoItems() bool {
	return r.Structure != nil && r.Structure.Error == NoItemsFound
}

// Analyze runs the full state machine over src.
//
// A source reporting zero pages or failing to read returns ErrDocumentUnreadable
// and no structure. Zero extracted items is not an error: the result carries a
// structure whose Error is NoItemsFound. When ctx is cancelled between pages the
// partial structure is returned together with the context error; it holds only
// the items whose specification search completed.
func (a *Analyzer) Analyze(ctx context.Context, documentPath string, src PageTextSource) (*AnalysisResult, error) {
	result := &AnalysisResult{State: StateUnloaded}
	log := a.logger.With("document", documentPath)

	pages, err := LoadPages(ctx, src)
	if err != nil {
		if errors.Is(err, ErrDocumentUnreadable) {
			result.State = StateFailed
			log.Error("document unreadable", "error", err)
		}
		return result, err
	}
	result.State = StateLoaded
	log.Debug("pages loaded", "pages", len(pages), "empty_pages", countEmpty(pages))

	structure := &EditalStructure{
		DocumentPath: documentPath,
		AnalyzedAt:   a.now().UTC(),
		TotalPages:   len(pages),
		Items:        []Item{},
	}
	result.Structure = structure

	report, err := a.extractor.Extract(ctx, pages)
	if err != nil {
		result.Diagnostics = append(result.Diagnostics,
			fmt.Sprintf("interrupted during item extraction, %d items discarded", len(report.Items)))
		return result, fmt.Errorf("item extraction interrupted: %w", err)
	}
	structure.Items = append(structure.Items, report.Items...)
	structure.TotalItems = len(structure.Items)
	result.State = StateItemsExtracted
	log.Debug("items extracted", "items", len(report.Items), "rows", report.RowsMatched, "duplicates", report.Duplicates)

	if len(structure.Items) == 0 {
		structure.Error = NoItemsFound
		result.Diagnostics = append(result.Diagnostics, report.Diagnostic)
		log.Warn("no items found", "pages_scanned", report.PagesScanned)
		return result, nil
	}

	for i := range structure.Items {
		item := &structure.Items[i]
		loc, err := a.locator.Locate(ctx, *item, pages)
		if err != nil {
			result.Diagnostics = append(result.Diagnostics,
				fmt.Sprintf("interrupted at item %s, %d of %d items kept", item.ItemID, i, len(structure.Items)))
			structure.Items = structure.Items[:i]
			structure.TotalItems = i
			return result, fmt.Errorf("specification search interrupted at item %s: %w", item.ItemID, err)
		}
		item.SpecPages = loc.SpecPages
		item.EstimatedRequirements = loc.EstimatedRequirements
		if loc.SpecPages.Unknown {
			result.Diagnostics = append(result.Diagnostics,
				fmt.Sprintf("item %s: no specification pages found, estimated %d requirements from category %q", item.ItemID, loc.EstimatedRequirements, loc.Category))
		}
	}
	result.State = StateEnriched
	log.Debug("items enriched", "items", len(structure.Items))

	result.State = StateDone
	log.Info("structure analysed", "pages", structure.TotalPages, "items", structure.TotalItems)
	return result, nil
}

// LoadPages reads every page of src in ascending order.
func LoadPages(ctx context.Context, src PageTextSource) ([]Page, error) {
	count, err := src.PageCount(ctx)
	if err != nil {
		return nil, unreadable(err)
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: document has no pages", ErrDocumentUnreadable)
	}

	pages := make([]Page, 0, count)
	for i := 0; i < count; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := src.PageText(ctx, i)
		if err != nil {
			return nil, unreadable(fmt.Errorf("page %d: %w", i+1, err))
		}
		pages = append(pages, Page{Index: i, Text: text})
	}
	return pages, nil
}

func unreadable(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrDocumentUnreadable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDocumentUnreadable, err)
}

func countEmpty(pages []Page) int {
	n := 0
	for _, p := range pages {
		if p.Text == "" {
			n++
		}
	}
	return n
}

var discard = slog.New(slog.DiscardHandler)

func discardLogger() *slog.Logger {
	return discard
}
