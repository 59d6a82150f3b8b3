// SPDX-License-Identifier: Apache-2.0

// Package structure turns the page text of a procurement document (edital)
// into an itemized, page-traceable requirement skeleton.
package structure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Page is the plain text of one document page. Index is 0-based;
// every page number exposed in extracted data is Index+1.
type Page struct {
	Index int
	Text  string
}

// Number returns the 1-based page number.
func (p Page) Number() int {
	return p.Index + 1
}

// PageTextSource supplies the per-page plain text of a document.
// An empty page text means the page could not be read (scanned or image-only);
// an encrypted or corrupted document must be reported as ErrDocumentUnreadable.
type PageTextSource interface {
	PageCount(ctx context.Context) (int, error)
	PageText(ctx context.Context, index int) (string, error)
}

// Unit is the unit-of-measure keyword of an item row.
type Unit string

const (
	UnitUnidade Unit = "Unidade"
	UnitServico Unit = "Serviço"
	UnitTurma   Unit = "Turma"
	UnitPar     Unit = "Par"
	UnitPares   Unit = "Pares"
	UnitMetros  Unit = "Metros"
)

// Units lists the recognised units.
var Units = []Unit{UnitUnidade, UnitServico, UnitTurma, UnitPar, UnitPares, UnitMetros}

// Item is one line-item of the document's pricing table.
type Item struct {
	ItemID      string `json:"item_id"`
	Description string `json:"description"`
	Unit        Unit   `json:"unit"`
	Quantity    int    `json:"quantity"`
	FoundOnPage int    `json:"found_on_page"`

	// Annotations added by the SpecLocator.
	SpecPages             SpecPages `json:"spec_pages"`
	EstimatedRequirements int       `json:"estimated_requirements"`
}

// SpecPages is the ordered list of pages holding specification content for an
// item, or the "unknown" sentinel when no page qualified and the requirement
// count came from the category fallback.
type SpecPages struct {
	Pages   []int
	Unknown bool
}

// UnknownSpecPages is the sentinel value.
var UnknownSpecPages = SpecPages{Unknown: true}

const unknownSpecPages = "unknown"

func (s SpecPages) MarshalJSON() ([]byte, error) {
	if s.Unknown {
		return json.Marshal(unknownSpecPages)
	}
	pages := s.Pages
	if pages == nil {
		pages = []int{}
	}
	return json.Marshal(pages)
}

func (s *SpecPages) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var sentinel string
		if err := json.Unmarshal(data, &sentinel); err != nil {
			return err
		}
		if sentinel != unknownSpecPages {
			return fmt.Errorf("spec_pages: unexpected sentinel %q", sentinel)
		}
		*s = UnknownSpecPages
		return nil
	}
	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		return fmt.Errorf("spec_pages: %w", err)
	}
	*s = SpecPages{Pages: pages}
	return nil
}

func (s SpecPages) String() string {
	if s.Unknown {
		return unknownSpecPages
	}
	return fmt.Sprint(s.Pages)
}

// EditalStructure is the itemized skeleton of one document. Items keep
// extraction order; downstream tooling indexes them positionally (items[idx-1]).
type EditalStructure struct {
	DocumentPath string    `json:"document_path"`
	AnalyzedAt   time.Time `json:"analyzed_at"`
	TotalPages   int       `json:"total_pages"`
	TotalItems   int       `json:"total_items"`
	Items        []Item    `json:"items"`
	// Error carries the soft-failure marker, e.g. "No items found".
	Error string `json:"error,omitempty"`
}
