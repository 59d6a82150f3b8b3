// SPDX-License-Identifier: Apache-2.0

package main

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"

	"github.com/editalproj/edital-mcp/internal/quality"
	"github.com/editalproj/edital-mcp/internal/tool"
)

func serveCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server over stdio",
		Long: `Serve the analysis tools to an MCP client over stdin/stdout.

Tools:
  analyze_edital_structure  extract items and specification pages
  parse_item_selection      resolve a selection expression
  score_analysis_quality    audit an analysis table
  score_item_conformity     mock catalog conformity scoring
  register_analysis         record a completed analysis (unless --no-ledger)
  list_analyses             read the ledger (unless --no-ledger)

Logs go to stderr so they never mix with the protocol stream.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			noLedger, _ := cmd.Flags().GetBool("no-ledger")

			scorer, err := a.conformityScorer()
			if err != nil {
				return err
			}
			opts := []tool.Option{
				tool.WithAnalyzer(a.analyzer()),
				tool.WithQualityScorer(quality.NewScorer(quality.WithLogger(a.logger)), a.cfg.Quality.PassScore),
				tool.WithConformityScorer(scorer),
				tool.WithLogger(a.logger),
			}
			if !noLedger {
				l, closeStore, err := a.openLedger(cmd.Context())
				if err != nil {
					return err
				}
				defer closeStore()
				opts = append(opts, tool.WithLedger(l))
			}

			server := tool.NewServer(tool.NewToolset(opts...), version)
			a.logger.Info("serving MCP over stdio", "version", version, "ledger", !noLedger)
			return server.Run(cmd.Context(), &mcp.StdioTransport{})
		},
	}

	cmd.Flags().Bool("no-ledger", false, "Do not expose the ledger tools")

	return cmd
}
