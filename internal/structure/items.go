// SPDX-License-Identifier: Apache-2.0

package structure

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/editalproj/edital-mcp/internal/textnorm"
)

const (
	// DefaultMaxScanPages is how many leading pages are searched for the item table.
	DefaultMaxScanPages = 15
	minDescriptionLen   = 5
)

// itemRowPattern matches the layout signature of a pricing-table row:
// number, description, unit keyword, quantity, then a currency marker.
var itemRowPattern = regexp.MustCompile(
	`(?m)^[ \t]*(\d+)[ \t]+(.+?)[ \t]+(Unidade|Serviço|Turma|Pares|Par|Metros)[ \t]+(\d+)[ \t]+R\$`)

// ItemRow is a raw pricing-table match before deduplication.
type ItemRow struct {
	Number      string
	Description string
	Unit        Unit
	Quantity    int
}

// MatchItemRows returns every pricing-table row found in text, in order.
// Descriptions are whitespace-collapsed; rows failing the noise filters
// (short description, zero quantity) are dropped.
func MatchItemRows(text string) []ItemRow {
	matches := itemRowPattern.FindAllStringSubmatch(text, -1)
	rows := make([]ItemRow, 0, len(matches))
	for _, m := range matches {
		row, ok := parseItemRow(m)
		if ok {
			rows = append(rows, row)
		}
	}
	return rows
}

func parseItemRow(m []string) (ItemRow, bool) {
	desc := textnorm.CollapseSpaces(m[2])
	if textnorm.Len(desc) < minDescriptionLen {
		return ItemRow{}, false
	}
	qty, err := strconv.Atoi(m[4])
	if err != nil || qty <= 0 {
		return ItemRow{}, false
	}
	return ItemRow{
		Number:      m[1],
		Description: desc,
		Unit:        Unit(m[3]),
		Quantity:    qty,
	}, true
}

// ItemExtractor scans the leading pages of a document for its item table.
type ItemExtractor struct {
	MaxScanPages int
}

// NewItemExtractor creates an ItemExtractor scanning maxScanPages pages.
// A non-positive value selects DefaultMaxScanPages.
func NewItemExtractor(maxScanPages int) *ItemExtractor {
	if maxScanPages <= 0 {
		maxScanPages = DefaultMaxScanPages
	}
	return &ItemExtractor{MaxScanPages: maxScanPages}
}

// ExtractReport is the outcome of one extraction pass.
type ExtractReport struct {
	Items        []Item
	PagesScanned int
	RowsMatched  int
	Duplicates   int
	// Diagnostic is set when no row matched on any scanned page.
	Diagnostic string
}

// Extract returns the unique items found on the scanned pages. Pages must be in
// ascending index order: the first occurrence of an item_id wins.
// Cancellation between pages returns the items found so far with ctx.Err().
func (e *ItemExtractor) Extract(ctx context.Context, pages []Page) (ExtractReport, error) {
	var report ExtractReport
	seen := make(map[string]bool)

	for _, page := range pages {
		if page.Index >= e.MaxScanPages {
			break
		}
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.PagesScanned++

		for _, row := range MatchItemRows(page.Text) {
			report.RowsMatched++
			if seen[row.Number] {
				report.Duplicates++
				continue
			}
			seen[row.Number] = true
			report.Items = append(report.Items, Item{
				ItemID:      row.Number,
				Description: row.Description,
				Unit:        row.Unit,
				Quantity:    row.Quantity,
				FoundOnPage: page.Number(),
			})
		}
	}

	if len(report.Items) == 0 {
		report.Diagnostic = fmt.Sprintf("no item table row matched in the first %d pages; the document layout is not the standard pricing table", report.PagesScanned)
	}
	return report, nil
}
