// SPDX-License-Identifier: Apache-2.0

package tool

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/editalproj/edital-mcp/internal/conformity"
	"github.com/editalproj/edital-mcp/internal/quality"
)

// MetadataScoreAnalysisQuality describes the score_analysis_quality tool.
var MetadataScoreAnalysisQuality = &mcp.Tool{
	Name: "score_analysis_quality",
	Description: "Audit a finished requirement analysis table and return a 0-100 quality score. " +
		"Six audits always run: completeness, consistency, reasoning_quality, evidence_quality, " +
		"confidence_levels and verdict_distribution. Each contributes one check; the score is " +
		"100 minus the sum of their deductions and may be negative. Expected columns: item, " +
		"categoria, descricao, veredicto, justificativa, evidencias, nivel_confianca. " +
		"Provide rows inline or table_path (json, yaml or csv).",
	InputSchema: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"rows": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type":                 "object",
					"additionalProperties": map[string]interface{}{"type": "string"},
				},
				"description": "Table rows as column-to-text maps",
			},
			"table_path": map[string]interface{}{
				"type":        "string",
				"description": "Path of the table on the server, used when rows is empty",
			},
		},
	},
	OutputSchema: objectSchema(),
}

// InputScoreAnalysisQuality is the input for the ScoreAnalysisQuality tool.
type InputScoreAnalysisQuality struct {
	Rows      []quality.Row `json:"rows"`
	TablePath string        `json:"table_path"`
}

// OutputScoreAnalysisQuality is the output for the ScoreAnalysisQuality tool.
type OutputScoreAnalysisQuality struct {
	*quality.Report
	// Passed reports whether the score reached the configured pass score.
	Passed    bool    `json:"passed"`
	PassScore float64 `json:"pass_score"`
}

// ScoreAnalysisQuality runs the quality audits over a table.
func (t *Toolset) ScoreAnalysisQuality(_ context.Context, _ *mcp.CallToolRequest, input InputScoreAnalysisQuality) (*mcp.CallToolResult, OutputScoreAnalysisQuality, error) {
	rows := input.Rows
	if len(rows) == 0 && input.TablePath != "" {
		var err error
		if rows, err = quality.LoadFile(input.TablePath); err != nil {
			return nil, OutputScoreAnalysisQuality{}, err
		}
	}

	report := t.quality.Score(rows)
	return nil, OutputScoreAnalysisQuality{
		Report:    report,
		Passed:    report.Passed(t.passScore),
		PassScore: t.passScore,
	}, nil
}

// MetadataScoreItemConformity describes the score_item_conformity tool.
var MetadataScoreItemConformity = &mcp.Tool{
	Name: "score_item_conformity",
	Description: "Score an item's requirements against the product catalog. This is a deterministic " +
		"mock: each product meets each requirement with a probability derived from its catalog " +
		"rating, drawn from a generator seeded by the product model, so the same input always gives " +
		"the same result. Status is CONFORME (best >= 90%), PARCIAL (>= 70%), NAO_CONFORME, " +
		"SEM_PRODUTOS (no catalog products for the category) or SEM_ANALISE (no requirements).",
	InputSchema: map[string]interface{}{
		"type":     "object",
		"required": []string{"item_id", "description"},
		"properties": map[string]interface{}{
			"item_id": map[string]interface{}{
				"type":        "string",
				"description": "Item identifier",
			},
			"description": map[string]interface{}{
				"type":        "string",
				"description": "Item description, used to infer the category",
			},
			"category": map[string]interface{}{
				"type":        "string",
				"description": "Catalog category. Inferred from description when omitted.",
				"enum":        []string{"camera", "vms", "sensor", "cabo", "outros"},
			},
			"requirements": map[string]interface{}{
				"type": "array",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"id":          map[string]interface{}{"type": "string"},
						"descricao":   map[string]interface{}{"type": "string"},
						"obrigatorio": map[string]interface{}{"type": "string", "description": "SIM for mandatory"},
						"peso":        map[string]interface{}{"type": "number"},
					},
				},
			},
		},
	},
	OutputSchema: objectSchema(),
}

// InputScoreItemConformity is the input for the ScoreItemConformity tool.
type InputScoreItemConformity struct {
	ItemID       string                   `json:"item_id"`
	Description  string                   `json:"description"`
	Category     string                   `json:"category"`
	Requirements []conformity.Requirement `json:"requirements"`
}

// OutputScoreItemConformity is the output for the ScoreItemConformity tool.
type OutputScoreItemConformity struct {
	conformity.Result
}

// ScoreItemConformity scores one item against the catalog.
func (t *Toolset) ScoreItemConformity(_ context.Context, _ *mcp.CallToolRequest, input InputScoreItemConformity) (*mcp.CallToolResult, OutputScoreItemConformity, error) {
	if input.ItemID == "" {
		return nil, OutputScoreItemConformity{}, fmt.Errorf("item_id is required")
	}
	result := t.conformity.Score(input.ItemID, input.Description, input.Requirements, input.Category)
	return nil, OutputScoreItemConformity{Result: result}, nil
}
