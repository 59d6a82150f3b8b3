// SPDX-License-Identifier: Apache-2.0

package structure

import (
	"context"
	"log/slog"
	"strings"
	"unicode"

	"github.com/editalproj/edital-mcp/internal/textnorm"
)

const (
	DefaultScanStart       = 20
	DefaultScanEnd         = 100
	DefaultMarkerThreshold = 3
	DefaultMaxKeywords     = 3
	minKeywordLen          = 4
)

// stopWords are Portuguese function words never used as item keywords.
// Entries are folded (no accents) and at least minKeywordLen long.
var stopWords = map[string]bool{
	"PARA": true, "COMO": true, "PELO": true, "PELA": true, "PELOS": true, "PELAS": true,
	"ENTRE": true, "SOBRE": true, "SENDO": true, "ESTE": true, "ESTA": true, "ESSE": true,
	"ESSA": true, "DESTE": true, "DESTA": true, "NESTE": true, "NESTA": true, "QUANDO": true,
	"ONDE": true, "TODOS": true, "TODAS": true, "CADA": true, "MAIS": true, "MENOS": true,
	"ATRAVES": true, "CONFORME": true, "APOS": true, "SUAS": true, "SEUS": true,
	"DEVE": true, "DEVERA": true,
}

// Keywords derives up to max keyword tokens from an item description:
// upper-cased words longer than 3 characters that are not stop words.
func Keywords(description string, max int) []string {
	if max <= 0 {
		max = DefaultMaxKeywords
	}
	words := strings.FieldsFunc(textnorm.Upper(description), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	seen := make(map[string]bool)
	var out []string
	for _, w := range words {
		if textnorm.Len(w) < minKeywordLen || stopWords[textnorm.Fold(w)] || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
		if len(out) == max {
			break
		}
	}
	return out
}

// SpecLocator scans the later pages of a document for specification content
// belonging to an item and estimates its requirement count.
type SpecLocator struct {
	ScanStart       int
	ScanEnd         int
	MarkerThreshold int
	MaxKeywords     int
	Estimator       *RequirementEstimator
	logger          *slog.Logger
}

// NewSpecLocator creates a SpecLocator with the default scan range and threshold.
func NewSpecLocator() *SpecLocator {
	return &SpecLocator{
		ScanStart:       DefaultScanStart,
		ScanEnd:         DefaultScanEnd,
		MarkerThreshold: DefaultMarkerThreshold,
		MaxKeywords:     DefaultMaxKeywords,
		Estimator:       NewRequirementEstimator(),
		logger:          discardLogger(),
	}
}

// Location is the specification evidence found for one item.
type Location struct {
	SpecPages             SpecPages
	EstimatedRequirements int
	Keywords              []string
	// Category is set when the estimate came from the category fallback.
	Category string
}

// Locate scans pages with index in [ScanStart, ScanEnd). A page is about the
// item when any keyword appears in it; it counts as specification content only
// when its marker count exceeds MarkerThreshold. When no page qualifies the
// category fallback supplies the estimate and SpecPages is the unknown sentinel.
func (l *SpecLocator) Locate(ctx context.Context, item Item, pages []Page) (Location, error) {
	keywords := Keywords(item.Description, l.MaxKeywords)
	folded := make([]string, len(keywords))
	for i, kw := range keywords {
		folded[i] = textnorm.Fold(kw)
	}

	loc := Location{Keywords: keywords}
	var specPages []int
	for _, page := range pages {
		if page.Index < l.ScanStart {
			continue
		}
		if page.Index >= l.ScanEnd {
			break
		}
		if err := ctx.Err(); err != nil {
			loc.SpecPages = SpecPages{Pages: specPages}
			return loc, err
		}
		if !mentionsAny(page.Text, folded) {
			continue
		}
		count := CountRequirementMarkers(page.Text).Total()
		if count <= l.MarkerThreshold {
			continue
		}
		l.log().Debug("specification page found", "item_id", item.ItemID, "page", page.Number(), "markers", count)
		specPages = append(specPages, page.Number())
		loc.EstimatedRequirements += count
	}

	if len(specPages) == 0 {
		est := l.Estimator.Estimate(item.Description)
		loc.SpecPages = UnknownSpecPages
		loc.EstimatedRequirements = est.Requirements
		loc.Category = est.Category
		return loc, nil
	}
	loc.SpecPages = SpecPages{Pages: specPages}
	return loc, nil
}

func (l *SpecLocator) log() *slog.Logger {
	if l.logger == nil {
		return discardLogger()
	}
	return l.logger
}

func mentionsAny(text string, foldedKeywords []string) bool {
	if len(foldedKeywords) == 0 {
		return false
	}
	upper := textnorm.Fold(text)
	for _, kw := range foldedKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}
