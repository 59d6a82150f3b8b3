// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/editalproj/edital-mcp/internal/structure"
	"github.com/editalproj/edital-mcp/internal/structure/sources"
)

// MetadataAnalyzeEditalStructure describes the analyze_edital_structure tool.
var MetadataAnalyzeEditalStructure = &mcp.Tool{
	Name: "analyze_edital_structure",
	Description: "Analyze a procurement document (edital) and return its item skeleton. " +
		"Items are read from the item table rows of the first pages; for each item the " +
		"technical specification pages are located by keyword and requirement markers. " +
		"When no specification page is found spec_pages is \"unknown\" and " +
		"estimated_requirements comes from the item category. " +
		"A document with no item rows returns error \"No items found\" and an empty item list. " +
		"Provide either path (pdf, txt with form-feed page breaks, or a yaml/json page fixture) " +
		"or pages (one string per page).",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the document on the server",
			},
			"pages": map[string]interface{}{
				"type":        "array",
				"items":       map[string]interface{}{"type": "string"},
				"description": "Page texts in reading order, used when path is empty",
			},
			"document_name": map[string]interface{}{
				"type":        "string",
				"description": "Name recorded as document_path when pages are given inline",
			},
		},
	},
	OutputSchema: objectSchema(),
}

// InputAnalyzeEditalStructure is the input for the AnalyzeEditalStructure tool.
type InputAnalyzeEditalStructure struct {
	Path         string   `json:"path"`
	Pages        []string `json:"pages"`
	DocumentName string   `json:"document_name"`
}

// OutputAnalyzeEditalStructure is the output for the AnalyzeEditalStructure tool.
type OutputAnalyzeEditalStructure struct {
	Structure   *structure.EditalStructure `json:"structure"`
	State       structure.State            `json:"state"`
	Diagnostics []string                   `json:"diagnostics,omitempty"`
	// OpenerUsed names the document format that was read.
	OpenerUsed string `json:"opener_used"`
}

// AnalyzeEditalStructure runs the structure analyzer over a document.
func (t *Toolset) AnalyzeEditalStructure(ctx context.Context, _ *mcp.CallToolRequest, input InputAnalyzeEditalStructure) (*mcp.CallToolResult, OutputAnalyzeEditalStructure, error) {
	var (
		doc    sources.Document
		opener string
		name   = input.Path
	)
	switch {
	case input.Path != "":
		var err error
		doc, opener, err = t.sources.Open(ctx, input.Path)
		if err != nil {
			return nil, OutputAnalyzeEditalStructure{}, err
		}
	case len(input.Pages) > 0:
		doc, opener = sources.NewMemory(input.Pages...), "inline"
		name = input.DocumentName
		if name == "" {
			name = "inline"
		}
	default:
		return nil, OutputAnalyzeEditalStructure{}, fmt.Errorf("path or pages is required")
	}
	defer doc.Close()

	result, err := t.analyzer.Analyze(ctx, name, doc)
	if err != nil {
		return nil, OutputAnalyzeEditalStructure{}, err
	}
	return nil, OutputAnalyzeEditalStructure{
		Structure:   result.Structure,
		State:       result.State,
		Diagnostics: result.Diagnostics,
		OpenerUsed:  opener,
	}, nil
}

// MetadataParseItemSelection describes the parse_item_selection tool.
var MetadataParseItemSelection = &mcp.Tool{
	Name: "parse_item_selection",
	Description: "Resolve a selection expression against an analyzed structure. " +
		"Accepted forms: a 1-based position (\"3\"), an inclusive range (\"2-5\") or a comma-separated " +
		"mix (\"1,3-5,7\"); an empty expression selects nothing. Positions refer to the order of " +
		"structure.items, not to item_id. Out-of-range positions and inverted ranges reject the " +
		"whole expression.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"selection"},
		"properties": map[string]interface{}{
			"selection": map[string]interface{}{
				"type":        "string",
				"description": "Selection expression",
			},
			"structure": map[string]interface{}{
				"type":        "object",
				"description": "Structure returned by analyze_edital_structure",
			},
			"structure_path": map[string]interface{}{
				"type":        "string",
				"description": "Path of a structure JSON export, used when structure is absent",
			},
		},
	},
	OutputSchema: objectSchema(),
}

// InputParseItemSelection is the input for the ParseItemSelection tool.
type InputParseItemSelection struct {
	Selection     string                     `json:"selection"`
	Structure     *structure.EditalStructure `json:"structure"`
	StructurePath string                     `json:"structure_path"`
}

// OutputParseItemSelection is the output for the ParseItemSelection tool.
type OutputParseItemSelection struct {
	*structure.Selection
}

// ParseItemSelection resolves a selection expression.
func (t *Toolset) ParseItemSelection(_ context.Context, _ *mcp.CallToolRequest, input InputParseItemSelection) (*mcp.CallToolResult, OutputParseItemSelection, error) {
	s := input.Structure
	if s == nil {
		if input.StructurePath == "" {
			return nil, OutputParseItemSelection{}, fmt.Errorf("structure or structure_path is required")
		}
		f, err := os.Open(input.StructurePath)
		if err != nil {
			return nil, OutputParseItemSelection{}, fmt.Errorf("failed to open structure: %w", err)
		}
		defer f.Close()
		if s, err = structure.ReadStructure(f); err != nil {
			return nil, OutputParseItemSelection{}, err
		}
	}

	sel, err := structure.Select(s, strings.TrimSpace(input.Selection))
	if err != nil {
		return nil, OutputParseItemSelection{}, err
	}
	return nil, OutputParseItemSelection{Selection: sel}, nil
}
