// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/editalproj/edital-mcp/internal/structure"
	"github.com/editalproj/edital-mcp/internal/structure/sources"
)

func analyzeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <document>",
		Short: "Extract the item structure of a procurement document",
		Long: `Extract items from the item table of a procurement document and locate the
technical specification pages of each item.

Supported inputs: PDF, plain text with form-feed page breaks, and YAML/JSON
page fixtures ({pages: [...]}).

The structure is written as JSON. A document without recognisable item rows
still produces a structure, with error "No items found". With --timeout, the
items processed before the deadline are written and the command fails.

Example:
  edital-mcp analyze edital.pdf
  edital-mcp analyze edital.pdf --output structure.json
  edital-mcp analyze edital.txt --timeout 30s`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")
			timeout, _ := cmd.Flags().GetDuration("timeout")

			ctx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			doc, opener, err := sources.Default().Open(ctx, args[0])
			if err != nil {
				return err
			}
			defer doc.Close()
			a.logger.Debug("document opened", "path", args[0], "opener", opener)

			result, err := a.analyzer().Analyze(ctx, args[0], doc)
			if err != nil {
				if result == nil || result.Structure == nil || !isInterrupted(err) {
					return err
				}
				a.logger.Warn("analysis interrupted, writing partial structure", "items", result.Structure.TotalItems, "error", err)
				if werr := writeTo(cmd, output, func(w io.Writer) error { return structure.WriteStructure(w, result.Structure) }); werr != nil {
					return werr
				}
				return err
			}
			for _, d := range result.Diagnostics {
				a.logger.Info("diagnostic", "detail", d)
			}

			return writeTo(cmd, output, func(w io.Writer) error {
				return structure.WriteStructure(w, result.Structure)
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the structure to this file instead of stdout")
	cmd.Flags().Duration("timeout", 0, "Stop after this long and write the partial structure")

	return cmd
}

func selectCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select <structure.json> <expression>",
		Short: "Select items of an analyzed structure",
		Long: `Resolve a selection expression against a structure written by analyze.

Expressions are comma-separated 1-based positions and inclusive ranges.
Positions follow the order of the structure's items, not item ids.

Example:
  edital-mcp select structure.json "1,3-5,7"
  edital-mcp select structure.json 2 --output selection.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output, _ := cmd.Flags().GetString("output")

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open structure: %w", err)
			}
			defer f.Close()

			s, err := structure.ReadStructure(f)
			if err != nil {
				return err
			}
			sel, err := structure.Select(s, args[1])
			if err != nil {
				return err
			}
			a.logger.Debug("items selected", "selected", len(sel.SelectedIndices), "total", sel.TotalItemsInDocument)

			return writeTo(cmd, output, func(w io.Writer) error {
				return structure.WriteSelection(w, sel)
			})
		},
	}

	cmd.Flags().StringP("output", "o", "", "Write the selection to this file instead of stdout")

	return cmd
}

func isInterrupted(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// writeTo runs write against path, or against the command output when path
// is empty.
func writeTo(cmd *cobra.Command, path string, write func(io.Writer) error) error {
	if path == "" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
