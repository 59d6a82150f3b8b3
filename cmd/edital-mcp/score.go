// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/editalproj/edital-mcp/internal/conformity"
	"github.com/editalproj/edital-mcp/internal/quality"
)

func qualityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quality <table>",
		Short: "Score the quality of a finished analysis table",
		Long: `Audit an analysis table and report a 0-100 quality score.

Checks:
  completeness          required columns present and filled
  consistency           verdicts agree with evidence, justification and confidence
  reasoning_quality     justification length
  evidence_quality      evidence present and cited as source:line
  confidence_levels     alto / médio / baixo distribution
  verdict_distribution  recognised verdicts and bias hints

The table may be JSON, YAML or CSV (by extension). The command exits with
status 2 when the score is below the pass score or the table is empty.

Example:
  edital-mcp quality analysis.csv
  edital-mcp quality analysis.json --format json --pass-score 75`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			formatStr, _ := cmd.Flags().GetString("format")
			passScore := a.cfg.Quality.PassScore
			if cmd.Flags().Changed("pass-score") {
				passScore, _ = cmd.Flags().GetFloat64("pass-score")
			}

			rows, err := quality.LoadFile(args[0])
			if err != nil {
				return err
			}
			report := quality.NewScorer(quality.WithLogger(a.logger)).Score(rows)

			switch formatStr {
			case "json":
				data, err := report.ToJSON()
				if err != nil {
					return fmt.Errorf("failed to encode report: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
			case "text":
				fmt.Fprint(cmd.OutOrStdout(), report.String())
			default:
				return fmt.Errorf("unknown format %q (want text or json)", formatStr)
			}

			if !report.Passed(passScore) {
				return &exitError{
					code: exitGateFailed,
					err:  fmt.Errorf("quality gate failed: score %.1f, pass score %.1f, status %s", report.Score, passScore, report.Status),
				}
			}
			return nil
		},
	}

	cmd.Flags().String("format", "text", "Output format (text, json)")
	cmd.Flags().Float64("pass-score", 0, "Override quality.pass_score")

	return cmd
}

func conformityCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conformity",
		Short: "Score an item's requirements against the product catalog",
		Long: `Score extracted requirements against every catalog product of the item's
category. Scoring is a deterministic mock: the same requirements and catalog
always produce the same result.

The requirements file is a YAML or JSON list:
  - descricao: Resolução mínima de 4MP
    obrigatorio: SIM
    peso: 2

Example:
  edital-mcp conformity --item-id 8 --description "CÂMERA DOME" --requirements reqs.yaml
  edital-mcp conformity --item-id 3 --category vms --requirements reqs.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			itemID, _ := cmd.Flags().GetString("item-id")
			description, _ := cmd.Flags().GetString("description")
			category, _ := cmd.Flags().GetString("category")
			requirementsPath, _ := cmd.Flags().GetString("requirements")

			if itemID == "" {
				return fmt.Errorf("--item-id flag is required")
			}

			var requirements []conformity.Requirement
			if requirementsPath != "" {
				data, err := os.ReadFile(requirementsPath)
				if err != nil {
					return fmt.Errorf("failed to read requirements: %w", err)
				}
				if err := yaml.Unmarshal(data, &requirements); err != nil {
					return fmt.Errorf("failed to parse requirements: %w", err)
				}
			}

			scorer, err := a.conformityScorer()
			if err != nil {
				return err
			}
			result := scorer.Score(itemID, description, requirements, category)

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(result)
		},
	}

	cmd.Flags().String("item-id", "", "Item identifier (required)")
	cmd.Flags().String("description", "", "Item description, used to infer the category")
	cmd.Flags().String("category", "", "Catalog category (camera, vms, sensor, cabo, outros)")
	cmd.Flags().String("requirements", "", "YAML or JSON file listing the item's requirements")

	return cmd
}
