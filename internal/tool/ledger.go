// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/editalproj/edital-mcp/internal/ledger"
)

// MetadataRegisterAnalysis describes the register_analysis tool.
var MetadataRegisterAnalysis = &mcp.Tool{
	Name: "register_analysis",
	Description: "Record a completed analysis in the ledger and return the new entry. " +
		"Each document_name can be registered once; registering it again is rejected and " +
		"leaves the ledger unchanged. Ids are sequential from 1.",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"document_name"},
		"properties": map[string]interface{}{
			"document_name": map[string]interface{}{
				"type":        "string",
				"description": "Document identity, matched exactly",
			},
			"requirement_count": map[string]interface{}{
				"type":    "integer",
				"minimum": 0,
			},
			"status": map[string]interface{}{
				"type": "string",
			},
			"execution_time": map[string]interface{}{
				"type":        "string",
				"description": "Elapsed time as a duration such as 2m30s",
			},
			"delivery_path": map[string]interface{}{
				"type":        "string",
				"description": "Where the deliverables were written",
			},
		},
	},
	OutputSchema: objectSchema(),
}

// InputRegisterAnalysis is the input for the RegisterAnalysis tool.
type InputRegisterAnalysis struct {
	DocumentName     string `json:"document_name"`
	RequirementCount int    `json:"requirement_count"`
	Status           string `json:"status"`
	ExecutionTime    string `json:"execution_time"`
	DeliveryPath     string `json:"delivery_path"`
}

// OutputRegisterAnalysis is the output for the RegisterAnalysis tool.
type OutputRegisterAnalysis struct {
	Entry ledger.Entry `json:"entry"`
}

// RegisterAnalysis appends an entry to the ledger.
func (t *Toolset) RegisterAnalysis(ctx context.Context, _ *mcp.CallToolRequest, input InputRegisterAnalysis) (*mcp.CallToolResult, OutputRegisterAnalysis, error) {
	if t.ledger == nil {
		return nil, OutputRegisterAnalysis{}, fmt.Errorf("ledger is not configured")
	}
	var elapsed time.Duration
	if input.ExecutionTime != "" {
		var err error
		if elapsed, err = time.ParseDuration(input.ExecutionTime); err != nil {
			return nil, OutputRegisterAnalysis{}, fmt.Errorf("%w: execution_time: %w", ledger.ErrInvalidEntry, err)
		}
	}

	entry, err := t.ledger.Register(ctx, ledger.Registration{
		DocumentName:     input.DocumentName,
		RequirementCount: input.RequirementCount,
		Status:           input.Status,
		ExecutionTime:    elapsed,
		DeliveryPath:     input.DeliveryPath,
	})
	if err != nil {
		return nil, OutputRegisterAnalysis{}, err
	}
	return nil, OutputRegisterAnalysis{Entry: entry}, nil
}

// MetadataListAnalyses describes the list_analyses tool.
var MetadataListAnalyses = &mcp.Tool{
	Name:        "list_analyses",
	Description: "List the analyses recorded in the ledger in registration order, or return one entry when id is given.",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "integer",
				"minimum":     1,
				"description": "Return only the entry with this id",
			},
		},
	},
	OutputSchema: objectSchema(),
}

// InputListAnalyses is the input for the ListAnalyses tool.
type InputListAnalyses struct {
	ID int `json:"id"`
}

// OutputListAnalyses is the output for the ListAnalyses tool.
type OutputListAnalyses struct {
	Entries []ledger.Entry `json:"entries"`
	Count   int            `json:"count"`
}

// ListAnalyses reads the ledger.
func (t *Toolset) ListAnalyses(ctx context.Context, _ *mcp.CallToolRequest, input InputListAnalyses) (*mcp.CallToolResult, OutputListAnalyses, error) {
	if t.ledger == nil {
		return nil, OutputListAnalyses{}, fmt.Errorf("ledger is not configured")
	}

	var entries []ledger.Entry
	if input.ID > 0 {
		e, err := t.ledger.GetByID(ctx, input.ID)
		if err != nil {
			return nil, OutputListAnalyses{}, err
		}
		entries = []ledger.Entry{e}
	} else {
		var err error
		if entries, err = t.ledger.ListAll(ctx); err != nil {
			return nil, OutputListAnalyses{}, err
		}
	}

	return nil, OutputListAnalyses{Entries: entries, Count: len(entries)}, nil
}
